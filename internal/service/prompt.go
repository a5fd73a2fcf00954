// 모델에 전달하는 시스템 프롬프트와 컨텍스트 문서 렌더링

package service

import (
	"fmt"
	"strings"

	"github.com/k-fix/backend/internal/model"
)

// 모델에 역할/응답 포맷을 지시하는 시스템 프롬프트
// 응답 섹션 헤딩이 SolutionParser의 추출 패턴과 맞물려 있음
const systemPrompt = `You are K-Fix, a DevOps/SRE expert specialized in Kubernetes incident resolution.

MISSION:
- Analyze Kubernetes incidents with precision
- Propose concrete and safe solutions
- Prioritize stability and security

CONSTRAINTS:
- ALWAYS propose testable solutions
- NEVER destructive modifications without confirmation

RESPONSE FORMAT:
1. **ANALYSIS**: Incident diagnosis
2. **ROOT CAUSE**: Main problem identification
3. **SOLUTION**: Concrete actions to perform
4. **PREVENTION**: Measures to avoid recurrence`

// SystemPrompt - 모델 호출용 시스템 지시문
func SystemPrompt() string {
	return systemPrompt
}

// ContextPrompt - enrichment 데이터를 모델이 분석할 컨텍스트 문서로 변환
func ContextPrompt(data *model.EnrichedData) string {
	var b strings.Builder

	b.WriteString("INCIDENT TO ANALYZE:\n\n=== EVENT DETAILS ===\n")
	if event := data.EventDetails; event != nil {
		fmt.Fprintf(&b, "Event ID: %s\n", valueOr(event.EventID))
		fmt.Fprintf(&b, "Title: %s\n", valueOr(event.Title))
		fmt.Fprintf(&b, "Message: %s\n", valueOr(event.Message))
		fmt.Fprintf(&b, "Timestamp: %s\n", event.Timestamp.Format("2006-01-02T15:04:05Z"))
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(event.Tags, ", "))
	}

	b.WriteString("\n=== KUBERNETES CONTEXT ===\n")
	if ctx := data.K8sContext; ctx != nil {
		writePodContext(&b, ctx.Pod)
		writeDeploymentContext(&b, ctx.Deployment)
		writeEvents(&b, ctx.Events)
		writeDiscoveryInfo(&b, ctx.Discovery)
	} else {
		b.WriteString("No cluster context available\n")
	}

	b.WriteString("\n=== PROCESSING METADATA ===\n")
	fmt.Fprintf(&b, "Run ID: %s\n", data.RunID)

	b.WriteString("\nINSTRUCTIONS:\nAnalyze this incident and propose a structured solution according to the requested format.\nFocus on concrete and automatable actions.\n")

	return b.String()
}

func writePodContext(b *strings.Builder, pod model.PodInfo) {
	if pod.Error != "" {
		fmt.Fprintf(b, "Pod: %s\n", pod.Error)
		return
	}

	fmt.Fprintf(b, "Pod:\n- Name: %s\n- Namespace: %s\n- Status: %s\n- Restarts: %d\n",
		valueOr(pod.Name), valueOr(pod.Namespace), valueOr(pod.Phase), pod.Restarts)
	for _, c := range pod.Containers {
		fmt.Fprintf(b, "  - %s: Ready=%v, Restarts=%d, LastState=%s\n",
			c.Name, c.Ready, c.RestartCount, c.LastState)
	}
}

func writeDeploymentContext(b *strings.Builder, deployment model.DeploymentInfo) {
	if deployment.Error != "" {
		fmt.Fprintf(b, "\nDeployment: %s\n", deployment.Error)
		return
	}

	fmt.Fprintf(b, "\nDeployment:\n- Name: %s\n- Desired replicas: %d\n- Ready replicas: %d\n",
		valueOr(deployment.Name), deployment.Replicas, deployment.ReadyReplicas)
	if len(deployment.Resources.Requests) > 0 || len(deployment.Resources.Limits) > 0 {
		fmt.Fprintf(b, "- Resources: requests=%v limits=%v\n",
			deployment.Resources.Requests, deployment.Resources.Limits)
	}
}

func writeEvents(b *strings.Builder, events []model.EventInfo) {
	if len(events) == 0 {
		return
	}

	b.WriteString("\nRecent events:\n")
	// 프롬프트에는 최근 5개만 포함
	if len(events) > 5 {
		events = events[:5]
	}
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s - %s\n", event.Type, event.Reason, event.Message)
	}
}

func writeDiscoveryInfo(b *strings.Builder, info model.DiscoveryInfo) {
	if info.Strategy == "" {
		return
	}

	b.WriteString("\n=== AUTOMATIC DISCOVERY ===\n")
	fmt.Fprintf(b, "Strategy: %s\n", info.Strategy)
	fmt.Fprintf(b, "Found namespace: %s\n", valueOr(info.FoundNamespace))
	fmt.Fprintf(b, "Discovered deployment: %s\n", valueOr(info.FoundDeployment))
}

func valueOr(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
