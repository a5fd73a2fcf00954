// Datadog Events API v2와 통신하는 클라이언트 정의
//
// 환경변수:
//   - DD_API_KEY: Datadog API Key
//   - DD_APP_KEY: Datadog Application Key
//   - DD_SITE: Datadog 사이트 (default: datadoghq.eu)
//
// Worker가 웹훅에 담긴 event_id로 이벤트 상세(tags 포함)를 다시 조회할 때 사용
// 웹훅 페이로드에는 pod/namespace 태그가 없기 때문

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/model"
)

// ErrEventNotFound - 이벤트가 Datadog에 없는 경우
// 호출자는 이를 빈 결과로 취급 (retryable 장애와 구분)
var ErrEventNotFound = errors.New("datadog event not found")

// DatadogClient 구조체 정의
type DatadogClient struct {
	apiKey     string
	appKey     string
	baseURL    string
	httpClient *http.Client
}

// eventResponse - GET /api/v2/events/{id} 응답 중 사용하는 필드만 정의
type eventResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Message    string   `json:"message"`
			Timestamp  int64    `json:"timestamp"`
			Tags       []string `json:"tags"`
			Attributes struct {
				Title     string `json:"title"`
				AlertType string `json:"alert_type"`
			} `json:"attributes"`
		} `json:"attributes"`
	} `json:"data"`
}

// DatadogClient 객체 생성
func NewDatadogClient(cfg config.DatadogConfig) (*DatadogClient, error) {
	if cfg.APIKey == "" || cfg.AppKey == "" {
		return nil, fmt.Errorf("DD_API_KEY and DD_APP_KEY must be defined")
	}

	return &DatadogClient{
		apiKey:  cfg.APIKey,
		appKey:  cfg.AppKey,
		baseURL: "https://api." + cfg.Site,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetRuntimeEvent - event_id로 이벤트 상세 조회
func (c *DatadogClient) GetRuntimeEvent(ctx context.Context, eventID string) (*model.RuntimeEvent, error) {
	endpoint := c.baseURL + "/api/v2/events/" + url.PathEscape(eventID)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("DD-API-KEY", c.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", c.appKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call datadog events API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrEventNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("datadog returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var eventResp eventResponse
	if err := json.Unmarshal(body, &eventResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	tags := eventResp.Data.Attributes.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.RuntimeEvent{
		EventID:   eventID,
		Title:     eventResp.Data.Attributes.Attributes.Title,
		Message:   eventResp.Data.Attributes.Message,
		AlertType: eventResp.Data.Attributes.Attributes.AlertType,
		Timestamp: time.UnixMilli(eventResp.Data.Attributes.Timestamp).UTC(),
		Tags:      tags,
	}, nil
}
