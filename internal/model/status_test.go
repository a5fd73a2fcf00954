package model

import "testing"

// 상태 enum의 문자열 매핑이 왕복 가능한지 검증
// DB에 문자열로 저장되므로 String() -> ParseAlertStatus가 항상 원래 값으로 돌아와야 함
func TestAlertStatusRoundTrip(t *testing.T) {
	for _, status := range AllAlertStatuses {
		parsed, err := ParseAlertStatus(status.String())
		if err != nil {
			t.Fatalf("ParseAlertStatus(%q) returned error: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("round trip mismatch: %q -> %q", status, parsed)
		}
	}
}

func TestParseAlertStatusUnknown(t *testing.T) {
	if _, err := ParseAlertStatus("exploded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestAlertStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status AlertStatus
		want   bool
	}{
		{StatusReceived, false},
		{StatusProcessing, false},
		{StatusEnriched, false},
		{StatusSolutionProposed, false},
		{StatusResolved, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
