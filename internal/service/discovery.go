// Workload Discovery - 알림에서 추출한 pod 이름으로 클러스터 컨텍스트를 찾음
//
// 탐색 케이스:
//   - A. 네임스페이스를 아는 경우: 직접 조회, 실패 시 같은 네임스페이스에서
//     substring 매칭 (가장 최근 생성된 pod 우선, 근사 매칭 플래그 설정)
//   - B. pod 이름만 아는 경우: 자주 쓰는 네임스페이스 우선으로 전체 탐색,
//     첫 매칭에서 중단 (탐색한 네임스페이스는 전부 기록)
//   - C. deployment 해석: ownership chain(Pod→ReplicaSet→Deployment) 우선,
//     실패 시 관례적인 라벨 키로 같은 이름의 deployment 존재 확인
//
// 실패 방침: 네임스페이스 단위 조회 실패는 "없음"으로 취급하고 계속 진행
// 네임스페이스 목록 조회 자체가 실패했을 때만 진단 결과로 중단 (패닉/에러 없음)

package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/k-fix/backend/internal/model"
)

// 전체 탐색 시 먼저 확인하는 네임스페이스
var priorityNamespaces = []string{"default", "kube-system", "monitoring", "logging"}

// deployment 라벨 해석에 사용하는 관례적인 애플리케이션 식별 라벨 키 (시도 순서 고정)
var deploymentLabelKeys = []string{"app.kubernetes.io/name", "app", "k8s-app"}

// 이벤트 목록 상한
const maxEvents = 20

// DiscoveryService 구조체 정의
// 클라이언트는 생성 시점에 주입 - 테스트에서는 fake clientset으로 대체
type DiscoveryService struct {
	client kubernetes.Interface
}

// DiscoveryService 객체 생성
func NewDiscoveryService(client kubernetes.Interface) *DiscoveryService {
	return &DiscoveryService{client: client}
}

// Discover - pod 이름(과 선택적 네임스페이스/deployment 이름)으로 컨텍스트 수집
func (s *DiscoveryService) Discover(ctx context.Context, namespace, podName, deploymentName string) model.DiscoveryResult {
	// 클러스터 밖에서 kubeconfig 없이 기동한 경우 - discovery만 비활성
	if s.client == nil {
		return model.DiscoveryResult{
			Pod:        model.PodInfo{Error: "kubernetes client unavailable"},
			Deployment: model.DeploymentInfo{Error: "kubernetes client unavailable"},
			Events:     []model.EventInfo{},
			Discovery:  model.DiscoveryInfo{Strategy: "direct"},
		}
	}

	if podName == "" {
		return model.DiscoveryResult{
			Pod:        model.PodInfo{Error: "no pod name provided"},
			Deployment: model.DeploymentInfo{Error: "cannot find deployment without valid pod"},
			Events:     []model.EventInfo{},
			Discovery:  model.DiscoveryInfo{Strategy: "direct"},
		}
	}

	if namespace == "" {
		return s.discoverAcrossNamespaces(ctx, podName)
	}

	result := model.DiscoveryResult{
		Events:    []model.EventInfo{},
		Discovery: model.DiscoveryInfo{Strategy: "direct", FoundNamespace: namespace},
	}

	pod, podInfo := s.podWithFallback(ctx, namespace, podName)
	result.Pod = podInfo

	if podInfo.Error != "" {
		// pod를 못 찾았으면 deployment도 찾을 수 없음
		result.Deployment = model.DeploymentInfo{Error: "cannot find deployment without valid pod"}
		return result
	}

	if deploymentName != "" {
		result.Deployment = s.deploymentContext(ctx, namespace, deploymentName)
		result.Discovery.FoundDeployment = deploymentName
	} else {
		result.Deployment, result.Discovery.FoundDeployment, result.Discovery.DeploymentMethod = s.resolveDeployment(ctx, pod)
	}

	result.Events = s.podEvents(ctx, podInfo.Namespace, podInfo.Name)
	return result
}

// discoverAcrossNamespaces - 네임스페이스를 모를 때 클러스터 전체에서 pod 탐색
// 첫 매칭이 우선: 같은 이름의 pod가 여러 네임스페이스에 있어도 먼저 만난 것이 기준
func (s *DiscoveryService) discoverAcrossNamespaces(ctx context.Context, podName string) model.DiscoveryResult {
	result := model.DiscoveryResult{
		Events:    []model.EventInfo{},
		Discovery: model.DiscoveryInfo{Strategy: "automatic_discovery"},
	}

	nsList, err := s.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		log.Printf("Failed to list namespaces during discovery: %v", err)
		result.Pod = model.PodInfo{Error: fmt.Sprintf("discovery failed: %v", err)}
		result.Deployment = model.DeploymentInfo{Error: "discovery failed"}
		return result
	}

	known := make(map[string]struct{}, len(nsList.Items))
	var names []string
	for _, ns := range nsList.Items {
		known[ns.Name] = struct{}{}
		names = append(names, ns.Name)
	}
	sort.Strings(names)

	// priority 네임스페이스를 앞에 두고 나머지는 알파벳 순
	searchOrder := make([]string, 0, len(names)+len(priorityNamespaces))
	inPriority := make(map[string]struct{}, len(priorityNamespaces))
	for _, ns := range priorityNamespaces {
		inPriority[ns] = struct{}{}
		if _, ok := known[ns]; ok {
			searchOrder = append(searchOrder, ns)
		}
	}
	for _, ns := range names {
		if _, ok := inPriority[ns]; !ok {
			searchOrder = append(searchOrder, ns)
		}
	}

	for _, ns := range searchOrder {
		result.Discovery.SearchedNamespaces = append(result.Discovery.SearchedNamespaces, ns)

		pod, err := s.client.CoreV1().Pods(ns).Get(ctx, podName, metav1.GetOptions{})
		if err != nil {
			// not-found든 일시적 장애든 이 네임스페이스에는 없는 것으로 취급
			continue
		}

		log.Printf("Found pod %s in namespace %s", podName, ns)
		result.Discovery.FoundNamespace = ns
		result.Pod = formatPodInfo(pod, false)
		result.Deployment, result.Discovery.FoundDeployment, result.Discovery.DeploymentMethod = s.resolveDeployment(ctx, pod)
		result.Events = s.podEvents(ctx, ns, podName)
		return result
	}

	log.Printf("Pod %s not found in any namespace", podName)
	result.Pod = model.PodInfo{Error: fmt.Sprintf("pod %s not found in any namespace", podName)}
	result.Deployment = model.DeploymentInfo{Error: "cannot find deployment without valid pod"}
	return result
}

// podWithFallback - 정확한 이름으로 조회하고, not-found면 substring 매칭으로 폴백
func (s *DiscoveryService) podWithFallback(ctx context.Context, namespace, podName string) (*corev1.Pod, model.PodInfo) {
	pod, err := s.client.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
	if err == nil {
		return pod, formatPodInfo(pod, false)
	}

	log.Printf("Pod %s not found in namespace %s, trying pattern search: %v", podName, namespace, err)

	pods, listErr := s.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if listErr != nil {
		return nil, model.PodInfo{Error: fmt.Sprintf("pattern search failed: %v", listErr)}
	}

	var match *corev1.Pod
	for i := range pods.Items {
		candidate := &pods.Items[i]
		if !strings.Contains(candidate.Name, podName) {
			continue
		}
		// 가장 최근에 생성된 매칭을 선택
		if match == nil || candidate.CreationTimestamp.After(match.CreationTimestamp.Time) {
			match = candidate
		}
	}

	if match == nil {
		return nil, model.PodInfo{Error: fmt.Sprintf("no pods matching pattern %q found in %s", podName, namespace)}
	}

	log.Printf("Found similar pod %s (pattern=%s)", match.Name, podName)
	return match, formatPodInfo(match, true)
}

// resolveDeployment - pod를 소유한 deployment 해석
// 1) ownership chain, 2) 라벨 휴리스틱 순서로 시도하고 첫 성공을 채택
// 둘 다 실패하면 명시적 not-found 마커 반환 (discovery 전체는 실패하지 않음)
func (s *DiscoveryService) resolveDeployment(ctx context.Context, pod *corev1.Pod) (model.DeploymentInfo, string, string) {
	if name := s.deploymentFromOwnerChain(ctx, pod); name != "" {
		return s.deploymentContext(ctx, pod.Namespace, name), name, "owner_reference"
	}

	for _, key := range deploymentLabelKeys {
		candidate, ok := pod.Labels[key]
		if !ok || candidate == "" {
			continue
		}
		if _, err := s.client.AppsV1().Deployments(pod.Namespace).Get(ctx, candidate, metav1.GetOptions{}); err != nil {
			continue
		}
		log.Printf("Found deployment %s via label %s", candidate, key)
		return s.deploymentContext(ctx, pod.Namespace, candidate), candidate, "label:" + key
	}

	log.Printf("Could not discover deployment for pod %s", pod.Name)
	return model.DeploymentInfo{Error: "no deployment found for this pod"}, "", ""
}

// deploymentFromOwnerChain - Pod -> ReplicaSet -> Deployment owner reference 추적
func (s *DiscoveryService) deploymentFromOwnerChain(ctx context.Context, pod *corev1.Pod) string {
	for _, owner := range pod.OwnerReferences {
		if owner.Kind != "ReplicaSet" {
			continue
		}

		rs, err := s.client.AppsV1().ReplicaSets(pod.Namespace).Get(ctx, owner.Name, metav1.GetOptions{})
		if err != nil {
			log.Printf("Could not read ReplicaSet %s: %v", owner.Name, err)
			continue
		}

		for _, rsOwner := range rs.OwnerReferences {
			if rsOwner.Kind == "Deployment" {
				log.Printf("Found deployment %s via ReplicaSet %s", rsOwner.Name, rs.Name)
				return rsOwner.Name
			}
		}
	}
	return ""
}

// deploymentContext - deployment 상세 조회 (replicas, 첫 컨테이너의 리소스)
func (s *DiscoveryService) deploymentContext(ctx context.Context, namespace, name string) model.DeploymentInfo {
	deployment, err := s.client.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		log.Printf("Failed to get deployment %s/%s: %v", namespace, name, err)
		return model.DeploymentInfo{Name: name, Error: fmt.Sprintf("deployment %s not found", name)}
	}

	info := model.DeploymentInfo{
		Name:          deployment.Name,
		ReadyReplicas: deployment.Status.ReadyReplicas,
	}
	if deployment.Spec.Replicas != nil {
		info.Replicas = *deployment.Spec.Replicas
	}

	if containers := deployment.Spec.Template.Spec.Containers; len(containers) > 0 {
		info.Resources = model.ResourceSummary{
			Requests: resourceMap(containers[0].Resources.Requests),
			Limits:   resourceMap(containers[0].Resources.Limits),
		}
	}

	return info
}

// podEvents - 해당 pod를 대상으로 한 최근 클러스터 이벤트 조회
func (s *DiscoveryService) podEvents(ctx context.Context, namespace, podName string) []model.EventInfo {
	events, err := s.client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: "involvedObject.name=" + podName,
	})
	if err != nil {
		log.Printf("Failed to list events for pod %s/%s: %v", namespace, podName, err)
		return []model.EventInfo{}
	}

	infos := make([]model.EventInfo, 0, len(events.Items))
	for _, event := range events.Items {
		if len(infos) >= maxEvents {
			break
		}
		infos = append(infos, model.EventInfo{
			Type:    event.Type,
			Reason:  event.Reason,
			Message: event.Message,
		})
	}
	return infos
}

func formatPodInfo(pod *corev1.Pod, approximate bool) model.PodInfo {
	info := model.PodInfo{
		Name:        pod.Name,
		Namespace:   pod.Namespace,
		Phase:       string(pod.Status.Phase),
		Approximate: approximate,
	}

	for _, cs := range pod.Status.ContainerStatuses {
		lastState := "None"
		if cs.LastTerminationState.Terminated != nil {
			lastState = fmt.Sprintf("Terminated(%s)", cs.LastTerminationState.Terminated.Reason)
		}
		info.Restarts += int(cs.RestartCount)
		info.Containers = append(info.Containers, model.ContainerStatus{
			Name:         cs.Name,
			Ready:        cs.Ready,
			RestartCount: int(cs.RestartCount),
			LastState:    lastState,
		})
	}

	return info
}

func resourceMap(list corev1.ResourceList) map[string]string {
	if len(list) == 0 {
		return nil
	}
	out := make(map[string]string, len(list))
	for name, quantity := range list {
		out[string(name)] = quantity.String()
	}
	return out
}
