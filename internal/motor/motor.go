package motor

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"punchout/internal/config"
	"punchout/internal/daylog"
	"punchout/internal/logging"
	"punchout/internal/rules"
	"punchout/internal/storage"
	"punchout/internal/voice"
)

// Rejection reasons carried by Result.
const (
	ReasonWrongState       = "wrong_state"
	ReasonUnresolvedItems  = "unresolved_items"
	ReasonMainTime         = "main_time_not_handled"
	ReasonRequiredPending  = "required_schemas_pending"
	ReasonRequiredSchema   = "required_schema"
	ReasonNotFound         = "not_found"
	ReasonInvalidInput     = "invalid_input"
	ReasonMissingFields    = "missing_required_fields"
	ReasonNoWageLines      = "no_wage_lines"
	ReasonInvalidReason    = "invalid_discard_reason"
	ReasonInvalidAction    = "invalid_action"
	ReasonForceSkipped     = "force_skipped_required"
	ReasonAlreadyConfirmed = "already_confirmed"
)

// Result reports whether a command changed state. Rejected commands leave
// the day untouched and carry a Reason.
type Result struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

func applied() Result { return Result{Applied: true} }

func rejected(reason string) Result { return Result{Reason: reason} }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Syncer receives a non-blocking nudge after a day is enqueued for export.
type Syncer interface {
	Trigger()
}

// SyncFunc adapts a function to Syncer.
type SyncFunc func()

// Trigger calls f.
func (f SyncFunc) Trigger() { f() }

// Options wires a Motor.
type Options struct {
	Clock   Clock
	Storage Storage
	Outbox  Outbox
	Rules   *config.Config
	// Voice is the speech source. Nil leaves voice unsupported.
	Voice  voice.Recognizer
	Logger *slog.Logger
	Syncer Syncer
	// AutoFlush runs deferred orchestration on its own goroutine after each
	// submit. Without it callers drain the queue with Flush.
	AutoFlush bool
}

// Motor owns the one live day and every command that changes it.
type Motor struct {
	mu sync.Mutex

	clock   Clock
	store   Storage
	outbox  Outbox
	cfg     *config.Config
	logger  *slog.Logger
	syncer  Syncer
	voice   *voice.Manager
	autoRun bool

	appState     daylog.AppState
	day          *daylog.DayLog
	ux           daylog.UxState
	storageErr   *storage.StorageError
	editingIndex int
	staleAck     bool

	tasks []task

	rev     uint64
	subMu   sync.Mutex
	subs    map[int]func(uint64)
	nextSub int
}

// New loads the persisted day and returns a ready Motor. A corrupt current
// day is not an error: it surfaces through Snapshot().StorageError.
func New(opts Options) (*Motor, error) {
	if opts.Storage == nil {
		return nil, errors.New("motor: storage is required")
	}
	cfg := opts.Rules
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	m := &Motor{
		clock:        clock,
		store:        opts.Storage,
		outbox:       opts.Outbox,
		cfg:          cfg,
		logger:       logging.NewComponentLogger(opts.Logger, "motor"),
		syncer:       opts.Syncer,
		autoRun:      opts.AutoFlush,
		editingIndex: -1,
		subs:         map[int]func(uint64){},
	}

	voiceOpts := voice.Options{
		Recognizer:     opts.Voice,
		Dispatcher:     m,
		SessionTimeout: time.Duration(cfg.Voice.SessionTimeoutMS) * time.Millisecond,
		ErrorClear:     time.Duration(cfg.Voice.ErrorClearMS) * time.Millisecond,
		MinSilence:     time.Duration(cfg.Voice.MinSilenceMS) * time.Millisecond,
		Logger:         opts.Logger,
		OnChange:       func(voice.Status) { m.notify() },
	}
	if vc, ok := clock.(voice.Clock); ok {
		voiceOpts.Clock = vc
	}
	m.voice = voice.NewManager(voiceOpts)

	current, loadErr := m.store.LoadCurrent()
	m.appState = current.AppState
	m.day = current.Day
	m.storageErr = loadErr
	if m.appState == "" {
		m.appState = daylog.NotStarted
	}
	if m.day != nil {
		m.ux = m.store.LoadUx()
	}
	if loadErr != nil {
		logging.WarnWithContext(m.logger, "current day could not be loaded", "storage_load",
			logging.String("kind", string(loadErr.Type)),
			logging.String(logging.FieldErrorHint, "reset the current day or ignore the error"),
			logging.String(logging.FieldImpact, "the stored day is not shown"),
		)
	}
	return m, nil
}

// Voice returns the voice session manager bound to this Motor.
func (m *Motor) Voice() *voice.Manager {
	return m.voice
}

// Revision returns the number of applied commands since construction.
func (m *Motor) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rev
}

// Subscribe registers fn for change notifications. fn runs outside the
// Motor lock and may call queries.
func (m *Motor) Subscribe(fn func(rev uint64)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// command runs fn under the lock. An applied result bumps the revision and
// notifies subscribers after the lock is released.
func (m *Motor) command(name string, fn func() Result) Result {
	m.mu.Lock()
	res := fn()
	var rev uint64
	if res.Applied {
		rev = m.commitLocked()
	}
	m.mu.Unlock()
	if res.Applied {
		m.logger.Debug("command applied", logging.String("command", name), logging.Uint64("revision", rev))
		m.publish(rev)
	} else if res.Reason != "" {
		m.logger.Info("command rejected",
			logging.String("command", name),
			logging.String(logging.FieldEventType, name+"_rejected"),
			logging.Reason(res.Reason),
		)
	}
	return res
}

func (m *Motor) commitLocked() uint64 {
	m.rev++
	return m.rev
}

// notify publishes the current revision without bumping it. Used for voice
// state that lives outside the day.
func (m *Motor) notify() {
	m.mu.Lock()
	rev := m.rev
	m.mu.Unlock()
	m.publish(rev)
}

func (m *Motor) publish(rev uint64) {
	m.subMu.Lock()
	fns := make([]func(uint64), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(rev)
	}
}

func (m *Motor) now() time.Time {
	return m.clock.Now()
}

func (m *Motor) ruleContext() rules.Context {
	return rules.ContextAt(m.now(), m.cfg.Admin.IsWinter)
}

// saveLocked persists the day. A failure becomes state, never a panic.
func (m *Motor) saveLocked() {
	if err := m.store.SaveCurrent(m.appState, m.day); err != nil {
		m.storageErr = storage.SaveFailure(err)
		logging.ErrorWithContext(m.logger, "failed to save current day", "storage_save",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the data directory"),
		)
	}
}

func (m *Motor) setUxLocked(ux daylog.UxState) {
	m.ux = ux
	if err := m.store.SaveUx(ux); err != nil {
		m.logger.Warn("failed to save ui state", logging.Error(err))
	}
}

func (m *Motor) clearUxLocked() {
	m.ux = daylog.UxState{}
	if err := m.store.ClearUx(); err != nil {
		m.logger.Warn("failed to clear ui state", logging.Error(err))
	}
}

// activeLocked reports whether ordinary commands may run.
func (m *Motor) activeLocked() bool {
	return m.appState == daylog.Active && m.day != nil && m.day.Phase != daylog.PhaseEnding
}

func (m *Motor) hovedordre() string {
	return m.cfg.Admin.HovedOrdre
}
