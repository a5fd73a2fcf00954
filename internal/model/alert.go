// Datadog 웹훅 페이로드 및 alerts 테이블 레코드 구조체를 정의
// handler, service, db 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import (
	"encoding/json"
	"time"
)

// DatadogWebhook - Datadog 모니터 웹훅 페이로드
// 중복 판정용 해시는 이 중 안정적인 필드(alert_id, event_id, event_type, title)로만 계산
type DatadogWebhook struct {
	// AlertID: Datadog 모니터 ID (필수)
	AlertID string `json:"alert_id"`

	// EventID: 이 알림을 발생시킨 이벤트 ID
	// Worker가 Events API로 상세를 다시 조회할 때 사용
	EventID string `json:"event_id"`

	EventType string `json:"event_type"`
	Title     string `json:"title"`

	// Date: Datadog이 보낸 발생 시각 (epoch millis 문자열)
	Date string `json:"date"`

	// Body: 알림 본문 원문 (해시 계산에서 제외 - 재전송마다 달라질 수 있음)
	Body string `json:"body"`
}

// Alert - alerts 테이블 한 행
type Alert struct {
	// Hash: 안정 필드로 계산한 SHA-256 지문 (PRIMARY KEY)
	Hash string `json:"hash"`

	// Payload: 수신 당시 페이로드 원본 (INSERT 이후 불변)
	Payload json.RawMessage `json:"payload"`

	Status AlertStatus `json:"status"`

	// EnrichedData: enrichment 성공 시 기록되는 구조화 페이로드
	EnrichedData json.RawMessage `json:"enriched_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ProcessedAt: 종료 상태(성공)에 도달했을 때만 설정
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// RetryCount: 종료 성공 이외의 상태 기록마다 +1 (리셋되지 않음)
	RetryCount int `json:"retry_count"`

	ErrorMessage *string `json:"error_message,omitempty"`
}

// PendingAlert - Worker가 집어가는 최소 단위 (hash + 원본 페이로드)
type PendingAlert struct {
	Hash    string          `json:"hash"`
	Payload json.RawMessage `json:"payload"`
}

// RuntimeEvent - Datadog Events API로 다시 조회한 이벤트 상세
type RuntimeEvent struct {
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	AlertType string    `json:"alert_type,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Tags: pod_name:..., kube_namespace:..., kube_deployment:... 형태
	Tags []string `json:"tags"`
}

// EnrichedData - enriched_data 컬럼에 저장되는 최종 구조
type EnrichedData struct {
	// RunID: 처리 시도 식별자 (로그 추적용)
	RunID string `json:"run_id"`

	EventDetails *RuntimeEvent    `json:"event_details,omitempty"`
	K8sContext   *DiscoveryResult `json:"k8s_context,omitempty"`
	Solution     *ParsedSolution  `json:"solution,omitempty"`
	Safety       *SafetyReport    `json:"safety,omitempty"`
	ModelUsage   *ModelUsage      `json:"model_usage,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingSeconds: 픽업부터 종료 상태 기록 직전까지 소요 시간
	ProcessingSeconds float64 `json:"processing_seconds"`
}

// ModelUsage - 모델 호출 토큰/비용 집계
type ModelUsage struct {
	Model        string  `json:"model"`
	TokensUsed   int     `json:"tokens_used"`
	CostEstimate float64 `json:"cost_estimate"`
}

// AlertStatistics - GET /statistics 응답
type AlertStatistics struct {
	AlertCounts  map[string]int       `json:"alert_counts"`
	RecentAlerts []RecentAlertSummary `json:"recent_alerts"`
}

// RecentAlertSummary - 최근 알림 요약 (hash는 앞 8자리만 노출)
type RecentAlertSummary struct {
	Hash      string    `json:"hash"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}
