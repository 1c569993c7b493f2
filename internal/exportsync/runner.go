package exportsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"punchout/internal/logging"
)

// Syncer runs one sync pass.
type Syncer interface {
	SyncOnce(ctx context.Context) (Result, error)
}

// Runner calls SyncOnce at start, on every interval tick, and on Trigger.
type Runner struct {
	syncer   Syncer
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}
	passes  chan Result
}

// NewRunner constructs a runner. A non-positive interval disables the ticker
// so only Start and Trigger cause passes.
func NewRunner(syncer Syncer, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		syncer:   syncer,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "exportsync"),
		wake:     make(chan struct{}, 1),
	}
}

// Start begins background syncing.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("sync runner already running")
	}
	if r.syncer == nil {
		return errors.New("sync runner has no syncer")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go r.loop(runCtx)
	return nil
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Trigger requests an extra pass. It never blocks; a pending trigger
// absorbs later ones.
func (r *Runner) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Passes returns a channel receiving every pass result. It must be called
// before Start. Results are dropped when the channel is full.
func (r *Runner) Passes() <-chan Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.passes == nil {
		r.passes = make(chan Result, 16)
	}
	return r.passes
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.pass(ctx)
		case <-r.wake:
			r.pass(ctx)
		}
	}
}

func (r *Runner) pass(ctx context.Context) {
	result, err := r.syncer.SyncOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("export sync pass failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "export_sync_failed"),
			logging.String(logging.FieldErrorHint, "check outbox database access"),
		)
		return
	}
	if result.Outcome != OutcomeIdle && result.Outcome != OutcomeBusy {
		r.logger.Debug("export sync pass", logging.String("outcome", string(result.Outcome)))
	}
	r.mu.Lock()
	passes := r.passes
	r.mu.Unlock()
	if passes != nil {
		select {
		case passes <- result:
		default:
		}
	}
}
