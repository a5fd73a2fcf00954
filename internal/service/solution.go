// 모델 자유 텍스트 응답을 구조화된 해결책으로 변환하고 안전성을 분류
//
// 이 컴포넌트는 입력 텍스트에 대해 순수/결정적임 - I/O 없음, 외부 호출 없음
// 섹션 추출은 관대하게 동작: 패턴이 하나도 안 맞으면 빈 문자열 (에러 아님)

package service

import (
	"regexp"
	"strings"

	"github.com/k-fix/backend/internal/model"
)

// 추출 대상 섹션별 헤딩 라벨 (영어/프랑스어 병기 헤딩 허용)
var sectionLabels = map[string][]string{
	"analysis":   {"ANALYSIS", "ANALYSE"},
	"root_cause": {"ROOT CAUSE", "CAUSE RACINE"},
	"solution":   {"SOLUTION"},
	"prevention": {"PREVENTION", "PRÉVENTION"},
}

// 명령 추출 대상 운영 도구
var commandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`kubectl\s+[^\n]+`),
	regexp.MustCompile(`helm\s+[^\n]+`),
	regexp.MustCompile(`docker\s+[^\n]+`),
	regexp.MustCompile(`systemctl\s+[^\n]+`),
}

var codeBlockPattern = regexp.MustCompile("(?s)```(?:bash|shell|sh)?\\n(.*?)\\n```")

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)estimated?\s+time[:\s]*([^\n]+)`),
	regexp.MustCompile(`(?i)resolution\s+time[:\s]*([^\n]+)`),
	regexp.MustCompile(`(?i)should\s+take[:\s]*([^\n]+)`),
	regexp.MustCompile(`(?i)(\d+\s*(?:minutes?|hours?|mins?))`),
}

var highPriorityKeywords = []string{
	"critical", "urgent", "down", "outage", "failure",
	"crash", "emergency", "severe", "production",
}

var lowPriorityKeywords = []string{
	"minor", "cosmetic", "enhancement", "optimization",
	"cleanup", "documentation", "low impact",
}

// 추출 명령 최대 개수
const maxCommands = 10

// SolutionParser 구조체 정의
type SolutionParser struct {
	dangerousCommands  []string
	kubectlDestructive []string
}

// SolutionParser 객체 생성
func NewSolutionParser() *SolutionParser {
	return &SolutionParser{
		dangerousCommands: []string{
			"rm -rf", "delete", "destroy", "drop", "truncate",
			"format", "mkfs", "dd if=", "kill -9",
		},
		kubectlDestructive: []string{"delete", "destroy", "remove"},
	}
}

// Parse - 모델 응답 텍스트를 구조화된 해결책으로 변환
func (p *SolutionParser) Parse(content string) model.ParsedSolution {
	return model.ParsedSolution{
		Analysis:      extractSection(content, sectionLabels["analysis"]...),
		RootCause:     extractSection(content, sectionLabels["root_cause"]...),
		Solution:      extractSection(content, sectionLabels["solution"]...),
		Prevention:    extractSection(content, sectionLabels["prevention"]...),
		Commands:      extractCommands(content),
		EstimatedTime: extractEstimatedTime(content),
		Priority:      inferPriority(content),
	}
}

// ValidateSafety - 해결책 텍스트와 명령 목록을 denylist와 대조
// 매칭이 하나라도 있으면 risk HIGH, 무인 실행 불가로 분류
// MEDIUM risk 경로는 없음 - 이 스캔의 출력은 LOW 또는 HIGH
func (p *SolutionParser) ValidateSafety(solutionText string, commands []string) model.SafetyReport {
	var issues []string

	solutionLower := strings.ToLower(solutionText)
	for _, dangerous := range p.dangerousCommands {
		if strings.Contains(solutionLower, dangerous) {
			issues = append(issues, "Dangerous command detected: "+dangerous)
		}
	}

	for _, cmd := range commands {
		cmdLower := strings.ToLower(strings.TrimSpace(cmd))

		if strings.HasPrefix(cmdLower, "kubectl") {
			for _, destructive := range p.kubectlDestructive {
				if strings.Contains(cmdLower, destructive) {
					issues = append(issues, "Destructive kubectl command: "+cmd)
					break
				}
			}
		}

		for _, dangerous := range p.dangerousCommands {
			if strings.Contains(cmdLower, dangerous) {
				issues = append(issues, "Dangerous system command: "+cmd)
				break
			}
		}
	}

	risk := model.RiskLow
	if len(issues) > 0 {
		risk = model.RiskHigh
	}

	return model.SafetyReport{
		IsSafe:          risk != model.RiskHigh,
		RiskLevel:       risk,
		SafetyIssues:    issues,
		Recommendations: safetyRecommendations(issues),
	}
}

// extractSection - 섹션 본문 추출
// 각 라벨에 대해 bold 헤딩 / 일반 헤딩 / 번호 목록 헤딩 순으로 시도하고
// 첫 매칭의 본문을 trim해서 반환, 전부 실패하면 빈 문자열
func extractSection(content string, labels ...string) string {
	for _, label := range labels {
		quoted := regexp.QuoteMeta(label)
		patterns := []*regexp.Regexp{
			regexp.MustCompile(`(?is)\*\*` + quoted + `\*\*[:\s]*(.*?)(?:\*\*|\n\n|$)`),
			regexp.MustCompile(`(?is)` + quoted + `[:\s]*(.*?)(?:\n\n|$)`),
			regexp.MustCompile(`(?is)\d+\.\s*\*\*` + quoted + `\*\*[:\s]*(.*?)(?:\d+\.|$)`),
		}

		for _, pattern := range patterns {
			if m := pattern.FindStringSubmatch(content); m != nil {
				if body := strings.TrimSpace(m[1]); body != "" {
					return body
				}
			}
		}
	}
	return ""
}

// extractCommands - 코드블록의 비주석 라인 + 인라인 도구 호출 수집
// 먼저 나온 순서를 유지하며 중복 제거, 최대 maxCommands개
func extractCommands(content string) []string {
	var commands []string

	for _, block := range codeBlockPattern.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(strings.TrimSpace(block[1]), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				commands = append(commands, line)
			}
		}
	}

	for _, pattern := range commandPatterns {
		commands = append(commands, pattern.FindAllString(content, -1)...)
	}

	seen := make(map[string]struct{}, len(commands))
	unique := make([]string, 0, len(commands))
	for _, cmd := range commands {
		if _, ok := seen[cmd]; ok {
			continue
		}
		seen[cmd] = struct{}{}
		unique = append(unique, cmd)
	}

	if len(unique) > maxCommands {
		unique = unique[:maxCommands]
	}
	return unique
}

func extractEstimatedTime(content string) string {
	for _, pattern := range timePatterns {
		if m := pattern.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return "Unknown"
}

// inferPriority - 긴급/저우선 키워드 출현 횟수 비교 (대소문자 무시 substring)
// high > low 이면서 high > 0 => HIGH, 아니면 low > 0 => LOW, 그 외 MEDIUM
func inferPriority(content string) model.Priority {
	contentLower := strings.ToLower(content)

	highCount := 0
	for _, keyword := range highPriorityKeywords {
		if strings.Contains(contentLower, keyword) {
			highCount++
		}
	}

	lowCount := 0
	for _, keyword := range lowPriorityKeywords {
		if strings.Contains(contentLower, keyword) {
			lowCount++
		}
	}

	switch {
	case highCount > lowCount && highCount > 0:
		return model.PriorityHigh
	case lowCount > 0:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

func safetyRecommendations(issues []string) []string {
	if len(issues) == 0 {
		return []string{"Solution appears safe for automated execution"}
	}
	return []string{
		"Manual review required before execution",
		"Test in staging environment first",
		"Have rollback plan ready",
		"Monitor system during execution",
	}
}
