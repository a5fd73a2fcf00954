// Alert 생명주기 상태 enum 정의
//
// 전이 순서:
//   received -> processing -> enriched -> solution_proposed -> resolved
//                    └-> failed (어느 단계에서든)
//
// resolved/failed는 종료 상태 - failed에서 received로 돌아가는 자동 전이는 없음

package model

import "fmt"

type AlertStatus string

const (
	StatusReceived         AlertStatus = "received"
	StatusProcessing       AlertStatus = "processing"
	StatusEnriched         AlertStatus = "enriched"
	StatusSolutionProposed AlertStatus = "solution_proposed"
	StatusResolved         AlertStatus = "resolved"
	StatusFailed           AlertStatus = "failed"
)

// AllAlertStatuses - 전이 순서대로 나열 (종료 상태는 마지막)
var AllAlertStatuses = []AlertStatus{
	StatusReceived,
	StatusProcessing,
	StatusEnriched,
	StatusSolutionProposed,
	StatusResolved,
	StatusFailed,
}

func (s AlertStatus) String() string {
	return string(s)
}

// IsTerminal - 더 이상 전이하지 않는 상태인지
func (s AlertStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// ParseAlertStatus - DB에 저장된 문자열을 상태로 변환
func ParseAlertStatus(value string) (AlertStatus, error) {
	for _, status := range AllAlertStatuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown alert status: %q", value)
}
