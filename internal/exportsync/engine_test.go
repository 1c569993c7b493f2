package exportsync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"punchout/internal/export"
	"punchout/internal/exportsync"
	"punchout/internal/logging"
	"punchout/internal/outbox"
	"punchout/internal/testsupport"
)

type harness struct {
	clock     *testsupport.Clock
	store     *outbox.Store
	transport *testsupport.Transport
	engine    *exportsync.Engine
	policy    exportsync.Policy
}

func newHarness(t *testing.T, outcomes ...export.Outcome) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewClock(time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC))
	store := testsupport.MustOpenOutbox(t, cfg, clock.Now)
	transport := testsupport.NewTransport(outcomes...)
	policy := exportsync.PolicyFromConfig(cfg)
	return &harness{
		clock:     clock,
		store:     store,
		transport: transport,
		engine:    exportsync.NewEngine(store, transport, policy, clock.Now, logging.NewNop()),
		policy:    policy,
	}
}

func (h *harness) enqueue(t *testing.T, id string) {
	t.Helper()
	if _, err := h.store.Enqueue(context.Background(), id, "2026-10-14", []byte(`{"exportId":"`+id+`"}`)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
}

func (h *harness) item(t *testing.T, id string) *outbox.Item {
	t.Helper()
	item, err := h.store.Get(context.Background(), id)
	if err != nil || item == nil {
		t.Fatalf("Get(%s): %v %v", id, item, err)
	}
	return item
}

func TestSyncOnceIdleWithEmptyQueue(t *testing.T) {
	h := newHarness(t)
	result, err := h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomeIdle {
		t.Fatalf("expected idle, got %+v", result)
	}
	if len(h.transport.Delivered()) != 0 {
		t.Fatal("transport must not be called")
	}
}

func TestSyncOnceMarksSent(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, "exp-1")

	result, err := h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomeSent || result.ExportID != "exp-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := h.item(t, "exp-1").Status; got != outbox.StatusSent {
		t.Fatalf("status = %s", got)
	}
}

func TestSyncOnceConflictCountsAsSent(t *testing.T) {
	h := newHarness(t, export.Outcome{Delivered: true, StatusCode: 409})
	h.enqueue(t, "exp-1")

	if _, err := h.engine.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if got := h.item(t, "exp-1").Status; got != outbox.StatusSent {
		t.Fatalf("status = %s", got)
	}
}

func TestSyncOnceTransientFailureBacksOff(t *testing.T) {
	h := newHarness(t, export.Outcome{
		StatusCode: 503,
		Err:        &export.DeliveryError{Kind: outbox.KindTransient, StatusCode: 503, Message: "503 Service Unavailable"},
	})
	h.enqueue(t, "exp-1")
	start := h.clock.Now()

	result, err := h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomeRetry || result.Retries != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	item := h.item(t, "exp-1")
	if item.Status != outbox.StatusFailed || item.Retries != 1 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.NextAttempt == nil || !item.NextAttempt.Equal(start.Add(30*time.Second)) {
		t.Fatalf("next attempt = %v, want %v", item.NextAttempt, start.Add(30*time.Second))
	}
	if item.Error != "503 Service Unavailable" {
		t.Fatalf("error = %q", item.Error)
	}

	h.clock.Advance(10 * time.Second)
	result, err = h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomeIdle {
		t.Fatalf("expected backoff to hold the item, got %+v", result)
	}

	h.clock.Advance(25 * time.Second)
	result, err = h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Retries != 2 {
		t.Fatalf("expected second attempt, got %+v", result)
	}
	item = h.item(t, "exp-1")
	want := h.clock.Now().Add(60 * time.Second)
	if item.NextAttempt == nil || !item.NextAttempt.Equal(want) {
		t.Fatalf("next attempt = %v, want %v", item.NextAttempt, want)
	}
}

func TestSyncOncePermanentFailureExhaustsBudget(t *testing.T) {
	h := newHarness(t, export.Outcome{
		Permanent:  true,
		StatusCode: 400,
		Err:        &export.DeliveryError{Kind: outbox.KindPermanent, StatusCode: 400, Message: "400 Bad Request"},
	})
	h.enqueue(t, "exp-1")

	result, err := h.engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomePermanent {
		t.Fatalf("unexpected result: %+v", result)
	}
	item := h.item(t, "exp-1")
	if item.Status != outbox.StatusFailed || item.Retries != h.policy.MaxRetries || item.Error != "400 Bad Request" {
		t.Fatalf("unexpected item: %+v", item)
	}

	h.clock.Advance(24 * time.Hour)
	result, _ = h.engine.SyncOnce(context.Background())
	if result.Outcome != exportsync.OutcomeIdle {
		t.Fatalf("permanently failed item must not be retried, got %+v", result)
	}
}

func TestSyncOnceResetsStuckAndPrunesSent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enqueue(t, "old-sent")
	h.enqueue(t, "stuck")
	if err := h.store.MarkSent(ctx, "old-sent", h.clock.Now()); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if ok, err := h.store.MarkSending(ctx, "stuck", h.clock.Now()); err != nil || !ok {
		t.Fatalf("MarkSending: %v %v", ok, err)
	}

	h.clock.Advance(h.policy.Retention + time.Hour)
	result, err := h.engine.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Reset != 1 || result.Pruned != 1 {
		t.Fatalf("unexpected maintenance counts: %+v", result)
	}
	if result.ExportID != "stuck" || result.Outcome != exportsync.OutcomeSent {
		t.Fatalf("expected stuck item to be redelivered, got %+v", result)
	}
	if item, _ := h.store.Get(ctx, "old-sent"); item != nil {
		t.Fatal("expected old sent item to be pruned")
	}
}

func TestPolicyBackoffCapsAtMax(t *testing.T) {
	policy := exportsync.Policy{BaseBackoff: 30 * time.Second, MaxBackoff: time.Hour}
	cases := map[int]time.Duration{
		0:  30 * time.Second,
		1:  60 * time.Second,
		3:  240 * time.Second,
		7:  time.Hour,
		40: time.Hour,
	}
	for retries, want := range cases {
		if got := policy.Backoff(retries); got != want {
			t.Fatalf("Backoff(%d) = %v, want %v", retries, got, want)
		}
	}
}

type blockingTransport struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Deliver(ctx context.Context, item *outbox.Item) export.Outcome {
	close(b.entered)
	<-b.release
	return export.Outcome{Delivered: true, StatusCode: 200}
}

func TestSyncOnceConcurrentCallReturnsBusy(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, "exp-1")
	blocking := &blockingTransport{entered: make(chan struct{}), release: make(chan struct{})}
	engine := exportsync.NewEngine(h.store, blocking, h.policy, h.clock.Now, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := engine.SyncOnce(context.Background())
		done <- err
	}()
	<-blocking.entered

	result, err := engine.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if result.Outcome != exportsync.OutcomeBusy {
		t.Fatalf("expected busy, got %+v", result)
	}
	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("first pass: %v", err)
	}
}

func TestSyncOnceWithoutTransport(t *testing.T) {
	engine := exportsync.NewEngine(nil, nil, exportsync.Policy{}, nil, nil)
	if _, err := engine.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured engine")
	}
}

var errBoom = errors.New("boom")

type failingSyncer struct{ calls chan struct{} }

func (f *failingSyncer) SyncOnce(context.Context) (exportsync.Result, error) {
	f.calls <- struct{}{}
	return exportsync.Result{}, errBoom
}

func TestRunnerSyncsOnStartAndTrigger(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, "exp-1")
	runner := exportsync.NewRunner(h.engine, 0, logging.NewNop())
	passes := runner.Passes()

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer runner.Stop()
	if err := runner.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	select {
	case result := <-passes:
		if result.Outcome != exportsync.OutcomeSent {
			t.Fatalf("expected initial pass to deliver, got %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial pass")
	}

	h.enqueue(t, "exp-2")
	runner.Trigger()
	select {
	case result := <-passes:
		if result.ExportID != "exp-2" {
			t.Fatalf("expected triggered pass to deliver exp-2, got %+v", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for triggered pass")
	}

	runner.Stop()
	if runner.Running() {
		t.Fatal("expected runner to be stopped")
	}
}

func TestRunnerSurvivesPassErrors(t *testing.T) {
	syncer := &failingSyncer{calls: make(chan struct{}, 4)}
	runner := exportsync.NewRunner(syncer, 0, logging.NewNop())
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-syncer.calls
	runner.Trigger()
	select {
	case <-syncer.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("runner stopped after a failed pass")
	}
	runner.Stop()
}
