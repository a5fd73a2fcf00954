// Workload Discovery 결과 구조체 정의
// 독립적으로 저장되지 않고 EnrichedData의 k8s_context로 직렬화됨

package model

// DiscoveryResult - 클러스터에서 찾은 pod/deployment 컨텍스트
type DiscoveryResult struct {
	Pod        PodInfo        `json:"pod"`
	Deployment DeploymentInfo `json:"deployment"`
	Events     []EventInfo    `json:"events"`
	Discovery  DiscoveryInfo  `json:"discovery_info"`
}

// PodInfo - 식별된 Pod 요약
type PodInfo struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`

	// Phase: Running, Pending, Failed 등 (corev1.PodPhase 문자열)
	Phase string `json:"phase,omitempty"`

	// Restarts: 전체 컨테이너 재시작 횟수 합계
	Restarts int `json:"restarts"`

	Containers []ContainerStatus `json:"container_statuses,omitempty"`

	// Approximate: 정확한 이름 매칭 실패 후 substring 매칭으로 찾은 경우 true
	Approximate bool `json:"approximate_match,omitempty"`

	// Error: pod 자체를 찾지 못했을 때의 진단 메시지 (예외를 던지지 않음)
	Error string `json:"error,omitempty"`
}

// ContainerStatus - 컨테이너별 상태 요약
type ContainerStatus struct {
	Name         string `json:"name"`
	Ready        bool   `json:"ready"`
	RestartCount int    `json:"restart_count"`

	// LastState: 마지막 종료 사유 (예: "Terminated(OOMKilled)"), 없으면 "None"
	LastState string `json:"last_state"`
}

// DeploymentInfo - Pod를 소유한 Deployment 요약
type DeploymentInfo struct {
	Name          string `json:"name,omitempty"`
	Replicas      int32  `json:"replicas"`
	ReadyReplicas int32  `json:"ready_replicas"`

	// Resources: 첫 번째 컨테이너의 requests/limits
	Resources ResourceSummary `json:"resources"`

	// Error: deployment를 찾지 못했을 때의 명시적 마커
	// (discovery 전체를 실패시키지 않음 - pod 컨텍스트만으로도 enrichment 가능)
	Error string `json:"error,omitempty"`
}

// ResourceSummary - 컨테이너 리소스 요청/제한
type ResourceSummary struct {
	Requests map[string]string `json:"requests,omitempty"`
	Limits   map[string]string `json:"limits,omitempty"`
}

// EventInfo - 해당 객체의 최근 클러스터 이벤트
type EventInfo struct {
	Type    string `json:"type"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// DiscoveryInfo - 어떤 전략으로 어디를 뒤졌는지 기록
type DiscoveryInfo struct {
	// Strategy: direct(네임스페이스 지정) 또는 automatic_discovery(전체 탐색)
	Strategy string `json:"search_strategy"`

	// SearchedNamespaces: 탐색 순서대로 기록 (찾은 네임스페이스 포함)
	SearchedNamespaces []string `json:"searched_namespaces,omitempty"`

	FoundNamespace string `json:"found_namespace,omitempty"`

	// FoundDeployment: 해석된 deployment 이름 (ownership 또는 label 방식)
	FoundDeployment string `json:"found_deployment,omitempty"`

	// DeploymentMethod: owner_reference 또는 label:<key>
	DeploymentMethod string `json:"deployment_method,omitempty"`
}
