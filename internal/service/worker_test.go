package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/k-fix/backend/internal/client"
	"github.com/k-fix/backend/internal/config"
	"github.com/k-fix/backend/internal/model"
)

type fakeWorkerStore struct {
	mu       sync.Mutex
	pending  []model.PendingAlert
	statuses []model.AlertStatus
	messages []string
	lastData []byte
}

func (f *fakeWorkerStore) GetPendingAlerts(ctx context.Context, limit int, grace time.Duration) ([]model.PendingAlert, error) {
	return f.pending, nil
}

func (f *fakeWorkerStore) UpdateAlertStatus(ctx context.Context, hash string, status model.AlertStatus, errorMessage string, enrichedData []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.messages = append(f.messages, errorMessage)
	if enrichedData != nil {
		f.lastData = enrichedData
	}
	return nil
}

type fakeEventFetcher struct {
	event *model.RuntimeEvent
	err   error
}

func (f *fakeEventFetcher) GetRuntimeEvent(ctx context.Context, eventID string) (*model.RuntimeEvent, error) {
	return f.event, f.err
}

type fakeDiscoverer struct {
	panics bool
}

func (f *fakeDiscoverer) Discover(ctx context.Context, namespace, podName, deploymentName string) model.DiscoveryResult {
	if f.panics {
		panic("boom")
	}
	return model.DiscoveryResult{
		Pod:       model.PodInfo{Name: podName, Namespace: namespace, Phase: "Running"},
		Discovery: model.DiscoveryInfo{Strategy: "direct", FoundNamespace: namespace},
	}
}

type fakeSolutionModel struct {
	response string
	err      error
}

func (f *fakeSolutionModel) GenerateSolution(ctx context.Context, systemPrompt, contextPrompt string) (string, *model.ModelUsage, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.response, &model.ModelUsage{Model: "test", TokensUsed: 42}, nil
}

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) SendSolutionProposal(hash string, solution *model.ParsedSolution, safety *model.SafetyReport) error {
	f.calls++
	return nil
}

func pendingFor(t *testing.T, webhook model.DatadogWebhook) model.PendingAlert {
	t.Helper()
	payload, err := json.Marshal(webhook)
	if err != nil {
		t.Fatal(err)
	}
	return model.PendingAlert{Hash: ComputeAlertHash(webhook), Payload: payload}
}

func workerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		PollInterval: time.Second,
		ErrorBackoff: time.Second,
		BatchSize:    10,
		GraceWindow:  0,
	}
}

func TestProcessPendingResolved(t *testing.T) {
	store := &fakeWorkerStore{pending: []model.PendingAlert{
		pendingFor(t, model.DatadogWebhook{AlertID: "a1", EventID: "e1", Title: "CPU high"}),
	}}
	events := &fakeEventFetcher{event: &model.RuntimeEvent{
		EventID: "e1",
		Title:   "CPU high",
		Tags:    []string{"pod_name:web-1", "kube_namespace:default"},
	}}
	solver := &fakeSolutionModel{response: "**ANALYSIS**: CPU saturated.\n\n**SOLUTION**: Scale up.\n\n```bash\nkubectl scale deployment/web --replicas=3\n```"}
	notifier := &fakeNotifier{}

	worker := NewWorker(store, events, &fakeDiscoverer{}, solver, notifier, workerConfig())
	if err := worker.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []model.AlertStatus{model.StatusProcessing, model.StatusEnriched, model.StatusSolutionProposed, model.StatusResolved}
	if len(store.statuses) != len(want) {
		t.Fatalf("statuses = %v", store.statuses)
	}
	for i, status := range want {
		if store.statuses[i] != status {
			t.Errorf("status[%d] = %q, want %q", i, store.statuses[i], status)
		}
	}
	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d", notifier.calls)
	}

	var data model.EnrichedData
	if err := json.Unmarshal(store.lastData, &data); err != nil {
		t.Fatal(err)
	}
	if data.Solution == nil || data.Safety == nil || data.ModelUsage == nil {
		t.Errorf("incomplete enriched data: %+v", data)
	}
	if data.ProcessedAt.IsZero() {
		t.Errorf("expected processed_at on terminal write")
	}
}

func TestProcessPendingEventNotFound(t *testing.T) {
	store := &fakeWorkerStore{pending: []model.PendingAlert{
		pendingFor(t, model.DatadogWebhook{AlertID: "a1", EventID: "e1"}),
	}}
	events := &fakeEventFetcher{err: client.ErrEventNotFound}

	worker := NewWorker(store, events, &fakeDiscoverer{}, &fakeSolutionModel{}, nil, workerConfig())
	if err := worker.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}

	last := len(store.statuses) - 1
	if store.statuses[last] != model.StatusFailed {
		t.Errorf("final status = %q", store.statuses[last])
	}
	if !strings.Contains(store.messages[last], "not found") {
		t.Errorf("error message = %q", store.messages[last])
	}
}

func TestProcessPendingNoPodIdentity(t *testing.T) {
	store := &fakeWorkerStore{pending: []model.PendingAlert{
		pendingFor(t, model.DatadogWebhook{AlertID: "a1", EventID: "e1"}),
	}}
	events := &fakeEventFetcher{event: &model.RuntimeEvent{EventID: "e1", Tags: []string{"env:prod"}}}

	worker := NewWorker(store, events, &fakeDiscoverer{}, &fakeSolutionModel{}, nil, workerConfig())
	if err := worker.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}

	last := len(store.statuses) - 1
	if store.statuses[last] != model.StatusFailed {
		t.Errorf("final status = %q", store.statuses[last])
	}
	if store.messages[last] != "no pod identity in event tags" {
		t.Errorf("error message = %q", store.messages[last])
	}
}

func TestProcessPendingModelFailure(t *testing.T) {
	store := &fakeWorkerStore{pending: []model.PendingAlert{
		pendingFor(t, model.DatadogWebhook{AlertID: "a1", EventID: "e1"}),
	}}
	events := &fakeEventFetcher{event: &model.RuntimeEvent{
		EventID: "e1",
		Tags:    []string{"pod_name:web-1", "kube_namespace:default"},
	}}
	solver := &fakeSolutionModel{err: context.DeadlineExceeded}

	worker := NewWorker(store, events, &fakeDiscoverer{}, solver, nil, workerConfig())
	if err := worker.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}

	last := len(store.statuses) - 1
	if store.statuses[last] != model.StatusFailed {
		t.Errorf("final status = %q", store.statuses[last])
	}
	if !strings.Contains(store.messages[last], "model call failed") {
		t.Errorf("error message = %q", store.messages[last])
	}
}

// 개별 알림 처리 중 panic은 루프를 죽이지 않고 failed로 흡수됨
func TestProcessPendingRecoversFromPanic(t *testing.T) {
	store := &fakeWorkerStore{pending: []model.PendingAlert{
		pendingFor(t, model.DatadogWebhook{AlertID: "a1", EventID: "e1"}),
	}}
	events := &fakeEventFetcher{event: &model.RuntimeEvent{
		EventID: "e1",
		Tags:    []string{"pod_name:web-1"},
	}}

	worker := NewWorker(store, events, &fakeDiscoverer{panics: true}, &fakeSolutionModel{}, nil, workerConfig())
	if err := worker.ProcessPending(context.Background()); err != nil {
		t.Fatal(err)
	}

	last := len(store.statuses) - 1
	if store.statuses[last] != model.StatusFailed {
		t.Errorf("final status = %q", store.statuses[last])
	}
	if !strings.Contains(store.messages[last], "panic during processing") {
		t.Errorf("error message = %q", store.messages[last])
	}
}

func TestExtractK8sInfoFromTags(t *testing.T) {
	namespace, pod, deployment := extractK8sInfoFromTags([]string{
		"env:prod",
		"pod_name:web-1",
		"kube_namespace:default",
		"kube_deployment:web",
	})
	if namespace != "default" || pod != "web-1" || deployment != "web" {
		t.Errorf("got namespace=%q pod=%q deployment=%q", namespace, pod, deployment)
	}

	namespace, pod, deployment = extractK8sInfoFromTags([]string{"env:prod"})
	if namespace != "" || pod != "" || deployment != "" {
		t.Errorf("expected empty values, got namespace=%q pod=%q deployment=%q", namespace, pod, deployment)
	}
}
