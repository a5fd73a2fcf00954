package service

import (
	"strings"
	"testing"

	"github.com/k-fix/backend/internal/model"
)

func TestParseSections(t *testing.T) {
	parser := NewSolutionParser()

	content := "**ANALYSIS**: The pod is crash looping.\n\n" +
		"**ROOT CAUSE**: Memory limit too low.\n\n" +
		"**SOLUTION**: Increase the memory limit.\n\n" +
		"**PREVENTION**: Add resource monitoring."

	got := parser.Parse(content)
	if got.Analysis != "The pod is crash looping." {
		t.Errorf("analysis = %q", got.Analysis)
	}
	if got.RootCause != "Memory limit too low." {
		t.Errorf("root cause = %q", got.RootCause)
	}
	if got.Solution != "Increase the memory limit." {
		t.Errorf("solution = %q", got.Solution)
	}
	if got.Prevention != "Add resource monitoring." {
		t.Errorf("prevention = %q", got.Prevention)
	}
}

func TestParseFrenchHeadings(t *testing.T) {
	parser := NewSolutionParser()

	content := "**ANALYSE**: Le pod ne démarre pas.\n\n" +
		"**CAUSE RACINE**: Image introuvable.\n\n" +
		"**SOLUTION**: Corriger le tag de l'image."

	got := parser.Parse(content)
	if got.Analysis != "Le pod ne démarre pas." {
		t.Errorf("analysis = %q", got.Analysis)
	}
	if got.RootCause != "Image introuvable." {
		t.Errorf("root cause = %q", got.RootCause)
	}
	if got.Solution != "Corriger le tag de l'image." {
		t.Errorf("solution = %q", got.Solution)
	}
}

// 구조 없는 응답도 에러 없이 빈 섹션으로 수렴해야 함
func TestParseFreeTextWithoutHeadings(t *testing.T) {
	parser := NewSolutionParser()

	got := parser.Parse("Everything looks nominal, nothing to report here.")
	if got.Analysis != "" || got.RootCause != "" || got.Solution != "" || got.Prevention != "" {
		t.Errorf("expected empty sections, got %+v", got)
	}
	if len(got.Commands) != 0 {
		t.Errorf("expected no commands, got %v", got.Commands)
	}
	if got.EstimatedTime != "Unknown" {
		t.Errorf("estimated time = %q", got.EstimatedTime)
	}
	if got.Priority != model.PriorityMedium {
		t.Errorf("priority = %q", got.Priority)
	}
}

func TestExtractCommandsDedupe(t *testing.T) {
	content := "First:\n```bash\nkubectl get pods -n default\n# comment line\nkubectl describe pod web-1\n```\n" +
		"Then again:\n```bash\nkubectl get pods -n default\n```\n"

	commands := extractCommands(content)
	if len(commands) != 2 {
		t.Fatalf("expected 2 unique commands, got %v", commands)
	}
	if commands[0] != "kubectl get pods -n default" || commands[1] != "kubectl describe pod web-1" {
		t.Errorf("unexpected commands %v", commands)
	}
}

func TestExtractCommandsCap(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, "kubectl get pod web-"+strings.Repeat("x", i+1))
	}
	content := "```bash\n" + strings.Join(lines, "\n") + "\n```"

	commands := extractCommands(content)
	if len(commands) != maxCommands {
		t.Errorf("expected %d commands, got %d", maxCommands, len(commands))
	}
}

func TestInferPriority(t *testing.T) {
	tests := []struct {
		content string
		want    model.Priority
	}{
		{"Critical production outage, urgent fix required", model.PriorityHigh},
		{"Minor cosmetic issue, cleanup later", model.PriorityLow},
		{"Adjust the replica count when convenient", model.PriorityMedium},
	}

	for _, tt := range tests {
		if got := inferPriority(tt.content); got != tt.want {
			t.Errorf("inferPriority(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestValidateSafetyDestructiveKubectl(t *testing.T) {
	parser := NewSolutionParser()

	report := parser.ValidateSafety("Remove the broken pod.", []string{"kubectl delete pod foo"})
	if report.IsSafe {
		t.Errorf("expected unsafe report")
	}
	if report.RiskLevel != model.RiskHigh {
		t.Errorf("risk = %q", report.RiskLevel)
	}

	found := false
	for _, issue := range report.SafetyIssues {
		if issue == "Destructive kubectl command: kubectl delete pod foo" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing destructive kubectl issue, got %v", report.SafetyIssues)
	}
}

func TestParseThenClassifyFencedDestructiveCommand(t *testing.T) {
	parser := NewSolutionParser()

	content := "**SOLUTION**: Remove the stuck pod.\n\n```bash\nkubectl delete pod foo\n```"
	solution := parser.Parse(content)

	found := false
	for _, cmd := range solution.Commands {
		if cmd == "kubectl delete pod foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("command not extracted, got %v", solution.Commands)
	}

	report := parser.ValidateSafety(solution.Solution, solution.Commands)
	if report.RiskLevel != model.RiskHigh {
		t.Errorf("risk = %q", report.RiskLevel)
	}

	wantIssue := "Destructive kubectl command: kubectl delete pod foo"
	found = false
	for _, issue := range report.SafetyIssues {
		if issue == wantIssue {
			found = true
		}
	}
	if !found {
		t.Errorf("missing %q in %v", wantIssue, report.SafetyIssues)
	}
}

func TestValidateSafetyCleanSolution(t *testing.T) {
	parser := NewSolutionParser()

	report := parser.ValidateSafety(
		"Restart the workload and watch the logs.",
		[]string{"kubectl rollout restart deployment/web", "kubectl logs -f deployment/web"},
	)
	if !report.IsSafe {
		t.Errorf("expected safe report, issues: %v", report.SafetyIssues)
	}
	if report.RiskLevel != model.RiskLow {
		t.Errorf("risk = %q", report.RiskLevel)
	}
	if len(report.SafetyIssues) != 0 {
		t.Errorf("expected no issues, got %v", report.SafetyIssues)
	}
}

func TestValidateSafetyDangerousText(t *testing.T) {
	parser := NewSolutionParser()

	report := parser.ValidateSafety("Run rm -rf /var/lib/data to clear the cache.", nil)
	if report.IsSafe || report.RiskLevel != model.RiskHigh {
		t.Errorf("expected high risk, got %+v", report)
	}
}

func TestExtractEstimatedTime(t *testing.T) {
	if got := extractEstimatedTime("Estimated time: 15 minutes"); got != "15 minutes" {
		t.Errorf("estimated time = %q", got)
	}
	if got := extractEstimatedTime("This should take 30 minutes overall"); !strings.HasPrefix(got, "30 minutes") {
		t.Errorf("estimated time = %q", got)
	}
}
