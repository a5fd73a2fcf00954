// 모델 응답 파싱 결과 및 안전성 분류 구조체 정의

package model

// Priority - 해결 우선순위 (키워드 빈도 기반 추론)
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// RiskLevel - 제안된 조치의 위험도
// Priority와는 독립적인 축: MEDIUM priority여도 risk는 LOW일 수 있음
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParsedSolution - 모델의 자유 텍스트 응답을 구조화한 결과
type ParsedSolution struct {
	Analysis   string `json:"analysis"`
	RootCause  string `json:"root_cause"`
	Solution   string `json:"solution"`
	Prevention string `json:"prevention"`

	// Commands: 코드블록/인라인에서 추출한 명령 (순서 유지, 중복 제거, 최대 10개)
	Commands []string `json:"commands"`

	EstimatedTime string   `json:"estimated_time"`
	Priority      Priority `json:"priority"`
}

// SafetyReport - 파괴적 명령 스캔 결과
type SafetyReport struct {
	// IsSafe: HIGH risk 매칭이 하나도 없을 때만 true
	// false면 무인 자동 실행 금지 (운영자 검토 필요)
	IsSafe    bool      `json:"is_safe"`
	RiskLevel RiskLevel `json:"risk_level"`

	// SafetyIssues: 매칭된 패턴 원문 그대로 보존 (감사용)
	SafetyIssues []string `json:"safety_issues"`

	Recommendations []string `json:"recommendations"`
}
