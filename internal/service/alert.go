// Alert 수신 비즈니스 로직 정의
// handler에서 받은 웹훅을 검증하고 중복 제거 후 Store에 기록
//
// 처리 흐름:
//  1. 필수 필드(alert_id) 검증 - 실패 시 어떤 상태도 만들지 않음
//  2. 안정 필드로 중복 판정 해시 계산
//  3. IsAlertReceived로 기존 수신 여부 확인 - 있으면 duplicate 응답 (에러 아님)
//  4. SaveAlert (insert-or-ignore)
//  5. 이후 처리는 Worker가 grace window가 지난 뒤 picked up

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/k-fix/backend/internal/model"
)

// ErrMissingFields - 필수 페이로드 필드 누락 (입력 검증 에러)
var ErrMissingFields = errors.New("missing required fields")

// alertStore - Alert Store 중 ingestion이 쓰는 연산
type alertStore interface {
	IsAlertReceived(ctx context.Context, hash string) bool
	SaveAlert(ctx context.Context, hash string, payload []byte) error
}

// IngestResult - 수신 처리 결과
type IngestResult struct {
	Hash      string `json:"alert_hash"`
	Duplicate bool   `json:"duplicate"`
}

// AlertService 구조체 정의
type AlertService struct {
	store alertStore
}

// AlertService 객체 생성
func NewAlertService(store alertStore) *AlertService {
	return &AlertService{store: store}
}

// Ingest - 웹훅 페이로드를 검증/해싱하고 Store에 기록
func (s *AlertService) Ingest(ctx context.Context, webhook model.DatadogWebhook) (IngestResult, error) {
	if webhook.AlertID == "" {
		return IngestResult{}, fmt.Errorf("%w: alert_id", ErrMissingFields)
	}

	hash := ComputeAlertHash(webhook)

	// 같은 업스트림 이벤트의 재전송은 하나의 레코드로 수렴
	if s.store.IsAlertReceived(ctx, hash) {
		log.Printf("Duplicate alert ignored (hash=%s, alert_id=%s)", hash[:8], webhook.AlertID)
		return IngestResult{Hash: hash, Duplicate: true}, nil
	}

	payload, err := json.Marshal(webhook)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := s.store.SaveAlert(ctx, hash, payload); err != nil {
		return IngestResult{}, fmt.Errorf("failed to save alert: %w", err)
	}

	log.Printf("Alert accepted (hash=%s, alert_id=%s, event_id=%s)", hash[:8], webhook.AlertID, webhook.EventID)
	return IngestResult{Hash: hash}, nil
}

// ComputeAlertHash - 페이로드의 안정 필드로 결정적 지문 계산
// body/date는 재전송마다 달라질 수 있으므로 제외
func ComputeAlertHash(webhook model.DatadogWebhook) string {
	stable := fmt.Sprintf("%s|%s|%s|%s", webhook.AlertID, webhook.EventID, webhook.EventType, webhook.Title)
	sum := sha256.Sum256([]byte(stable))
	return hex.EncodeToString(sum[:])
}
