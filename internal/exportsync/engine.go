package exportsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"punchout/internal/config"
	"punchout/internal/export"
	"punchout/internal/logging"
	"punchout/internal/outbox"
)

// Queue is the subset of *outbox.Store the engine needs.
type Queue interface {
	ResetStuck(ctx context.Context, cutoff time.Time) (int64, error)
	PruneSent(ctx context.Context, cutoff time.Time) (int64, error)
	NextEligible(ctx context.Context, now time.Time, maxRetries int) (*outbox.Item, error)
	MarkSending(ctx context.Context, exportID string, now time.Time) (bool, error)
	MarkSent(ctx context.Context, exportID string, now time.Time) error
	MarkFailed(ctx context.Context, exportID string, retries int, nextAttempt *time.Time, message string) error
}

// Outcome names the result of one pass.
type Outcome string

const (
	OutcomeIdle      Outcome = "idle"
	OutcomeBusy      Outcome = "busy"
	OutcomeSent      Outcome = "sent"
	OutcomeRetry     Outcome = "retry"
	OutcomePermanent Outcome = "permanent"
)

// Result summarizes one SyncOnce pass.
type Result struct {
	Outcome     Outcome    `json:"outcome"`
	ExportID    string     `json:"exportId,omitempty"`
	StatusCode  int        `json:"statusCode,omitempty"`
	Retries     int        `json:"retries,omitempty"`
	NextAttempt *time.Time `json:"nextAttempt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Reset       int64      `json:"reset,omitempty"`
	Pruned      int64      `json:"pruned,omitempty"`
}

// Policy holds the retry and retention settings.
type Policy struct {
	MaxRetries  int
	StuckAfter  time.Duration
	Retention   time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// PolicyFromConfig reads the export policy from cfg.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	base, maxDelay := cfg.Backoff()
	return Policy{
		MaxRetries:  cfg.Export.MaxRetries,
		StuckAfter:  cfg.StuckAfter(),
		Retention:   cfg.SentRetention(),
		BaseBackoff: base,
		MaxBackoff:  maxDelay,
	}
}

// Backoff returns the delay before the next attempt given the retry count
// before this failure: min(2^retries * base, max).
func (p Policy) Backoff(retries int) time.Duration {
	if p.BaseBackoff <= 0 {
		return 0
	}
	delay := p.BaseBackoff
	for i := 0; i < retries; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Engine performs serialized sync passes.
type Engine struct {
	queue     Queue
	transport export.Transport
	policy    Policy
	now       func() time.Time
	logger    *slog.Logger

	mu sync.Mutex
}

// NewEngine constructs an engine. now defaults to time.Now.
func NewEngine(queue Queue, transport export.Transport, policy Policy, now func() time.Time, logger *slog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		queue:     queue,
		transport: transport,
		policy:    policy,
		now:       now,
		logger:    logging.NewComponentLogger(logger, "exportsync"),
	}
}

// SyncOnce runs one pass. A call made while another pass is running returns
// OutcomeBusy immediately.
func (e *Engine) SyncOnce(ctx context.Context) (Result, error) {
	if !e.mu.TryLock() {
		return Result{Outcome: OutcomeBusy}, nil
	}
	defer e.mu.Unlock()

	if e.queue == nil || e.transport == nil {
		return Result{Outcome: OutcomeIdle}, errors.New("sync engine not configured")
	}

	var result Result
	now := e.now()

	reset, err := e.queue.ResetStuck(ctx, now.Add(-e.policy.StuckAfter))
	if err != nil {
		return result, err
	}
	if reset > 0 {
		e.logger.Info("reset stuck exports", logging.Int64("count", reset))
	}
	result.Reset = reset

	if e.policy.Retention > 0 {
		pruned, err := e.queue.PruneSent(ctx, now.Add(-e.policy.Retention))
		if err != nil {
			return result, err
		}
		if pruned > 0 {
			e.logger.Info("pruned delivered exports", logging.Int64("count", pruned))
		}
		result.Pruned = pruned
	}

	item, err := e.queue.NextEligible(ctx, now, e.policy.MaxRetries)
	if err != nil {
		return result, err
	}
	if item == nil {
		result.Outcome = OutcomeIdle
		return result, nil
	}
	claimed, err := e.queue.MarkSending(ctx, item.ExportID, now)
	if err != nil {
		return result, err
	}
	if !claimed {
		result.Outcome = OutcomeIdle
		return result, nil
	}
	result.ExportID = item.ExportID

	outcome := e.transport.Deliver(ctx, item)
	result.StatusCode = outcome.StatusCode
	logger := e.logger.With(logging.ExportID(item.ExportID), logging.Day(item.DayID))

	switch {
	case outcome.Delivered:
		if err := e.queue.MarkSent(ctx, item.ExportID, e.now()); err != nil {
			return result, err
		}
		result.Outcome = OutcomeSent
		logger.Info("export delivered", logging.Int("status_code", outcome.StatusCode))
	case outcome.Permanent || outbox.IsPermanent(outcome.Err):
		message := errorMessage(outcome.Err)
		if err := e.queue.MarkFailed(ctx, item.ExportID, e.policy.MaxRetries, nil, message); err != nil {
			return result, err
		}
		result.Outcome = OutcomePermanent
		result.Retries = e.policy.MaxRetries
		result.Error = message
		logging.WarnWithContext(logger, "export rejected by endpoint", "export_rejected",
			logging.String("error", message),
			logging.String(logging.FieldErrorHint, "inspect the packet and endpoint configuration, then run export retry"),
			logging.String(logging.FieldImpact, "the day will not be delivered until retried"),
		)
	default:
		message := errorMessage(outcome.Err)
		next := now.Add(e.policy.Backoff(item.Retries))
		retries := item.Retries + 1
		if err := e.queue.MarkFailed(ctx, item.ExportID, retries, &next, message); err != nil {
			return result, err
		}
		result.Outcome = OutcomeRetry
		result.Retries = retries
		result.NextAttempt = &next
		result.Error = message
		logging.WarnWithContext(logger, "export delivery failed; will retry", "export_retry",
			logging.String("error", message),
			logging.Int("retries", retries),
			logging.String("next_attempt", next.UTC().Format(time.RFC3339)),
			logging.String(logging.FieldErrorHint, "check network connectivity and endpoint health"),
			logging.String(logging.FieldImpact, "delivery is delayed"),
		)
	}
	return result, nil
}

func errorMessage(err error) string {
	if err == nil {
		return "delivery failed"
	}
	return err.Error()
}
