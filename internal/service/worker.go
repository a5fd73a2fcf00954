// Lifecycle Worker - pending 알림을 찾아 enrichment 파이프라인을 진행
//
// 상태 기계:
//   received -> processing -> enriched -> solution_proposed -> resolved
//                    └-> failed (이벤트 조회 실패, pod 미식별, 모델 호출 실패, panic)
//
// 동작 방식:
//   - 고정 주기로 깨어나 최대 BatchSize개의 pending 알림을 집어감
//   - 픽업 즉시 processing으로 전이 (received만 집어가므로 이중 처리 없음)
//   - 알림마다 goroutine 하나로 병렬 처리, 배치 전체를 기다린 후 다시 폴링
//   - 조회 실패 시 더 긴 backoff 주기로 대기, 루프 자체는 ctx 취소 전까지 종료하지 않음
//   - failed에서 received로 돌아가는 자동 전이는 없음 (실패한 알림은 운영자 확인 대상)
//
// 개별 알림의 어떤 결과도 루프 밖으로 전파되지 않음 - panic도 failed로 흡수

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/k-fix/backend/internal/client"
	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/model"
)

// discovery(클러스터 API 조회)에 적용하는 타임아웃 - 폴링 주기와 별개
const discoveryTimeout = 30 * time.Second

// workerStore - Alert Store 중 Worker가 쓰는 연산
type workerStore interface {
	GetPendingAlerts(ctx context.Context, limit int, grace time.Duration) ([]model.PendingAlert, error)
	UpdateAlertStatus(ctx context.Context, hash string, status model.AlertStatus, errorMessage string, enrichedData []byte) error
}

// eventFetcher - 모니터링 소스에서 이벤트 상세를 조회하는 외부 경계
type eventFetcher interface {
	GetRuntimeEvent(ctx context.Context, eventID string) (*model.RuntimeEvent, error)
}

// workloadDiscoverer - 클러스터 컨텍스트 수집 경계
type workloadDiscoverer interface {
	Discover(ctx context.Context, namespace, podName, deploymentName string) model.DiscoveryResult
}

// solutionModel - 모델 호출 경계
type solutionModel interface {
	GenerateSolution(ctx context.Context, systemPrompt, contextPrompt string) (string, *model.ModelUsage, error)
}

// solutionNotifier - 분석 완료 알림 전송 경계 (실패해도 종료 상태에 영향 없음)
type solutionNotifier interface {
	SendSolutionProposal(hash string, solution *model.ParsedSolution, safety *model.SafetyReport) error
}

// Worker 구조체 정의
type Worker struct {
	store     workerStore
	events    eventFetcher
	discovery workloadDiscoverer
	model     solutionModel
	notifier  solutionNotifier
	parser    *SolutionParser
	cfg       config.WorkerConfig
}

// Worker 객체 생성
// notifier는 선택 사항 (nil이면 Slack 전송 생략)
func NewWorker(store workerStore, events eventFetcher, discovery workloadDiscoverer, solver solutionModel, notifier solutionNotifier, cfg config.WorkerConfig) *Worker {
	return &Worker{
		store:     store,
		events:    events,
		discovery: discovery,
		model:     solver,
		notifier:  notifier,
		parser:    NewSolutionParser(),
		cfg:       cfg,
	}
}

// Run - Worker 루프 실행 (ctx 취소 전까지 반환하지 않음)
func (w *Worker) Run(ctx context.Context) {
	log.Printf("Worker started (interval=%s, batch=%d, grace=%s)",
		w.cfg.PollInterval, w.cfg.BatchSize, w.cfg.GraceWindow)

	for {
		interval := w.cfg.PollInterval
		if err := w.ProcessPending(ctx); err != nil {
			log.Printf("Worker cycle failed, backing off: %v", err)
			interval = w.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			log.Printf("Worker stopped")
			return
		case <-time.After(interval):
		}
	}
}

// ProcessPending - 한 주기 분량의 pending 알림을 집어가 병렬 처리
func (w *Worker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.GetPendingAlerts(ctx, w.cfg.BatchSize, w.cfg.GraceWindow)
	if err != nil {
		return fmt.Errorf("failed to fetch pending alerts: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("Processing %d pending alerts", len(pending))

	var wg sync.WaitGroup
	for _, p := range pending {
		wg.Add(1)
		go func(p model.PendingAlert) {
			defer wg.Done()
			w.processAlert(ctx, p)
		}(p)
	}
	wg.Wait()

	return nil
}

// processAlert - 알림 하나를 종료 상태까지 진행
// 여기서 나가는 에러는 없음: 모든 실패는 failed 상태 기록으로 끝남
func (w *Worker) processAlert(ctx context.Context, pending model.PendingAlert) {
	started := time.Now()
	runID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while processing alert (hash=%s): %v", short(pending.Hash), r)
			w.fail(ctx, pending.Hash, fmt.Sprintf("panic during processing: %v", r))
		}
	}()

	// 픽업 즉시 processing으로 전이
	if err := w.store.UpdateAlertStatus(ctx, pending.Hash, model.StatusProcessing, "", nil); err != nil {
		log.Printf("Failed to mark alert as processing (hash=%s): %v", short(pending.Hash), err)
		return
	}

	var webhook model.DatadogWebhook
	if err := json.Unmarshal(pending.Payload, &webhook); err != nil {
		w.fail(ctx, pending.Hash, fmt.Sprintf("invalid stored payload: %v", err))
		return
	}

	log.Printf("Processing alert (hash=%s, alert_id=%s, run_id=%s)", short(pending.Hash), webhook.AlertID, runID)

	// 1. 모니터링 소스에서 이벤트 상세 조회
	if webhook.EventID == "" {
		w.fail(ctx, pending.Hash, "no event_id in payload")
		return
	}
	event, err := w.events.GetRuntimeEvent(ctx, webhook.EventID)
	if err != nil {
		if errors.Is(err, client.ErrEventNotFound) {
			w.fail(ctx, pending.Hash, fmt.Sprintf("event %s not found", webhook.EventID))
		} else {
			w.fail(ctx, pending.Hash, fmt.Sprintf("failed to fetch event %s: %v", webhook.EventID, err))
		}
		return
	}

	// 2. 태그에서 pod 식별 정보 추출
	namespace, podName, deploymentName := extractK8sInfoFromTags(event.Tags)
	if podName == "" {
		w.fail(ctx, pending.Hash, "no pod identity in event tags")
		return
	}
	log.Printf("K8s info extracted (hash=%s, namespace=%q, pod=%s, deployment=%q)",
		short(pending.Hash), namespace, podName, deploymentName)

	// 3. Workload Discovery (타임아웃은 폴링 주기와 별개)
	discoveryCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	k8sContext := w.discovery.Discover(discoveryCtx, namespace, podName, deploymentName)
	cancel()

	data := &model.EnrichedData{
		RunID:        runID,
		EventDetails: event,
		K8sContext:   &k8sContext,
	}

	// 4. 모델 호출 (클라이언트 자체 타임아웃 적용, 초과는 처리 실패로 기록)
	responseText, usage, err := w.model.GenerateSolution(ctx, SystemPrompt(), ContextPrompt(data))
	if err != nil {
		w.fail(ctx, pending.Hash, fmt.Sprintf("model call failed: %v", err))
		return
	}
	data.ModelUsage = usage

	// 5. enrichment 페이로드 확보 시점에 enriched 기록 (파싱은 이후 계속)
	if err := w.writeStatus(ctx, pending.Hash, model.StatusEnriched, data); err != nil {
		log.Printf("Failed to write enriched status (hash=%s): %v", short(pending.Hash), err)
	}

	// 6. 파싱 + 안전성 분류 (순수 연산, 실패 경로 없음)
	solution := w.parser.Parse(responseText)
	safety := w.parser.ValidateSafety(solution.Solution, solution.Commands)
	data.Solution = &solution
	data.Safety = &safety

	if err := w.writeStatus(ctx, pending.Hash, model.StatusSolutionProposed, data); err != nil {
		log.Printf("Failed to write solution_proposed status (hash=%s): %v", short(pending.Hash), err)
	}

	// 7. 해결책 제안 알림 (실패해도 종료 상태는 그대로 진행)
	if w.notifier != nil {
		if err := w.notifier.SendSolutionProposal(pending.Hash, &solution, &safety); err != nil {
			log.Printf("Failed to send solution notification (hash=%s): %v", short(pending.Hash), err)
		}
	}

	// 8. 종료 상태 기록 (processed_at이 찍히는 유일한 지점)
	data.ProcessedAt = time.Now().UTC()
	data.ProcessingSeconds = time.Since(started).Seconds()
	if err := w.writeStatus(ctx, pending.Hash, model.StatusResolved, data); err != nil {
		log.Printf("Failed to write terminal status (hash=%s): %v", short(pending.Hash), err)
		return
	}

	log.Printf("Alert resolved (hash=%s, risk=%s, priority=%s, took=%.2fs)",
		short(pending.Hash), safety.RiskLevel, solution.Priority, data.ProcessingSeconds)
}

func (w *Worker) writeStatus(ctx context.Context, hash string, status model.AlertStatus, data *model.EnrichedData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal enriched data: %w", err)
	}
	return w.store.UpdateAlertStatus(ctx, hash, status, "", payload)
}

func (w *Worker) fail(ctx context.Context, hash, reason string) {
	log.Printf("Alert failed (hash=%s): %s", short(hash), reason)
	if err := w.store.UpdateAlertStatus(ctx, hash, model.StatusFailed, reason, nil); err != nil {
		log.Printf("Failed to write failed status (hash=%s): %v", short(hash), err)
	}
}

// extractK8sInfoFromTags - 이벤트 태그에서 pod/namespace/deployment 추출
// 태그 형식: pod_name:<name>, kube_namespace:<ns>, kube_deployment:<name>
// namespace 태그가 없으면 빈 문자열 반환 -> Discovery가 전체 탐색으로 동작
func extractK8sInfoFromTags(tags []string) (namespace, podName, deploymentName string) {
	for _, tag := range tags {
		switch {
		case strings.HasPrefix(tag, "pod_name:"):
			podName = strings.TrimPrefix(tag, "pod_name:")
		case strings.HasPrefix(tag, "kube_namespace:"):
			namespace = strings.TrimPrefix(tag, "kube_namespace:")
		case strings.HasPrefix(tag, "kube_deployment:"):
			deploymentName = strings.TrimPrefix(tag, "kube_deployment:")
		}
	}
	return namespace, podName, deploymentName
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
