package voice

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"punchout/internal/logging"
)

// State is the reported capture state.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateError      State = "error"
)

// Default session timing.
const (
	DefaultSessionTimeout = 15 * time.Second
	DefaultErrorClear     = 3 * time.Second
	DefaultMinSilence     = 1500 * time.Millisecond
)

// User-facing messages.
const (
	MsgNoSpeech     = "Ingen tale fanget opp"
	MsgNotAllowed   = "Mikrofontilgang avslått"
	MsgNetwork      = "Nettverksfeil – trenger nett for tale"
	MsgHeardNothing = "Hørte ingenting – prøv igjen"
	MsgStartFailed  = "Kunne ikke starte tale"
)

// Recognizer is the platform speech engine.
type Recognizer interface {
	Start() error
	Stop()
}

// Dispatcher receives the single transcript of a session.
type Dispatcher interface {
	Dispatch(transcript string)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(transcript string)

func (f DispatchFunc) Dispatch(transcript string) { f(transcript) }

// Clock provides time and timers. AfterFunc returns a stop function.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) func() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// Status is a point-in-time view of the manager.
type Status struct {
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`
	Listening bool   `json:"listening"`
	Supported bool   `json:"supported"`
}

// Options configures a Manager.
type Options struct {
	Recognizer     Recognizer
	Dispatcher     Dispatcher
	Clock          Clock
	SessionTimeout time.Duration
	ErrorClear     time.Duration
	MinSilence     time.Duration
	Logger         *slog.Logger
	// OnChange is called outside the manager lock after every state change.
	OnChange       func(Status)
}

// Manager owns the session guards for one recognizer.
type Manager struct {
	mu         sync.Mutex
	recognizer Recognizer
	dispatcher Dispatcher
	clock      Clock
	logger     *slog.Logger
	onChange   func(Status)

	sessionTimeout time.Duration
	errorClear     time.Duration
	minSilence     time.Duration

	sessionActive bool
	resultHandled bool
	// awaitingEnd is set by a user stop until the recognizer reports the end.
	awaitingEnd bool
	listening     bool
	state         State
	errMsg        string
	startedAt     time.Time

	stopTimeout func() bool
	stopClear   func() bool
	clearGen    int
}

// NewManager constructs a manager. A nil recognizer reports unsupported.
func NewManager(opts Options) *Manager {
	m := &Manager{
		recognizer:     opts.Recognizer,
		dispatcher:     opts.Dispatcher,
		clock:          opts.Clock,
		logger:         logging.NewComponentLogger(opts.Logger, "voice"),
		onChange:       opts.OnChange,
		sessionTimeout: opts.SessionTimeout,
		errorClear:     opts.ErrorClear,
		minSilence:     opts.MinSilence,
		state:          StateIdle,
	}
	if m.clock == nil {
		m.clock = systemClock{}
	}
	if m.sessionTimeout <= 0 {
		m.sessionTimeout = DefaultSessionTimeout
	}
	if m.errorClear <= 0 {
		m.errorClear = DefaultErrorClear
	}
	if m.minSilence <= 0 {
		m.minSilence = DefaultMinSilence
	}
	return m
}

// SetRecognizer replaces the recognizer. It must not be called during a
// session.
func (m *Manager) SetRecognizer(r Recognizer) {
	m.mu.Lock()
	m.recognizer = r
	m.mu.Unlock()
}

// SetDispatcher replaces the transcript target.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.mu.Lock()
	m.dispatcher = d
	m.mu.Unlock()
}

// Status returns the current state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() Status {
	return Status{
		State:     m.state,
		Error:     m.errMsg,
		Listening: m.listening,
		Supported: m.recognizer != nil,
	}
}

// Toggle stops the running session, or starts a new one when none is
// active.
func (m *Manager) Toggle() {
	m.mu.Lock()
	rec := m.recognizer
	if rec == nil {
		m.mu.Unlock()
		return
	}
	if m.listening || m.sessionActive || m.awaitingEnd {
		if m.sessionActive {
			m.cancelTimeoutLocked()
			m.sessionActive = false
			m.resultHandled = true
			m.awaitingEnd = true
		}
		m.mu.Unlock()
		rec.Stop()
		return
	}

	m.cancelClearLocked()
	m.errMsg = ""
	m.resultHandled = false
	m.sessionActive = true
	m.stopTimeout = m.clock.AfterFunc(m.sessionTimeout, m.onSessionTimeout)
	m.mu.Unlock()

	if err := rec.Start(); err != nil {
		m.logger.Warn("speech capture failed to start", logging.Error(err),
			logging.String(logging.FieldEventType, "voice_start_failed"),
			logging.String(logging.FieldErrorHint, "check microphone availability"),
			logging.String(logging.FieldImpact, "entry must be typed instead"),
		)
		m.mu.Lock()
		m.cancelTimeoutLocked()
		m.sessionActive = false
		m.setErrorLocked(MsgStartFailed)
		m.mu.Unlock()
		m.changed()
	}
}

func (m *Manager) onSessionTimeout() {
	m.mu.Lock()
	stuck := m.sessionActive && !m.resultHandled
	rec := m.recognizer
	m.stopTimeout = nil
	m.mu.Unlock()
	if stuck && rec != nil {
		m.logger.Debug("speech session timed out")
		rec.Stop()
	}
}

// HandleStart is the recognizer's capture-started callback. A callback from
// a session that has already ended is ignored.
func (m *Manager) HandleStart() {
	m.mu.Lock()
	if !m.sessionActive {
		m.mu.Unlock()
		return
	}
	m.listening = true
	m.state = StateListening
	m.startedAt = m.clock.Now()
	m.mu.Unlock()
	m.changed()
}

// HandleResult receives a transcript. Only the first final, non-empty
// result of a live session is dispatched; capture is then stopped
// explicitly. Results arriving after the session ended or was stopped are
// dropped.
func (m *Manager) HandleResult(transcript string, final bool) {
	if !final || strings.TrimSpace(transcript) == "" {
		return
	}
	m.mu.Lock()
	if !m.sessionActive || m.resultHandled {
		m.mu.Unlock()
		return
	}
	m.cancelTimeoutLocked()
	m.resultHandled = true
	m.state = StateProcessing
	dispatcher := m.dispatcher
	rec := m.recognizer
	elapsed := m.clock.Now().Sub(m.startedAt)
	m.mu.Unlock()
	m.changed()

	m.logger.Debug("speech result", logging.Duration("latency", elapsed))
	if dispatcher != nil {
		dispatcher.Dispatch(transcript)
	}

	m.mu.Lock()
	m.listening = false
	m.state = StateIdle
	m.mu.Unlock()
	m.changed()
	if rec != nil {
		rec.Stop()
	}
}

// HandleError classifies a recognizer error code. "aborted" is a user stop
// and is not surfaced. Errors outside a live session are ignored.
func (m *Manager) HandleError(code string) {
	msg := ErrorMessage(code)
	m.mu.Lock()
	if !m.sessionActive {
		m.mu.Unlock()
		return
	}
	m.cancelTimeoutLocked()
	m.resultHandled = true
	m.listening = false
	if msg != "" {
		m.setErrorLocked(msg)
	} else {
		m.state = StateIdle
	}
	m.mu.Unlock()
	if msg != "" {
		m.logger.Info("speech capture error", logging.String("code", code))
	}
	m.changed()
}

// HandleEnd is the recognizer's session-ended callback. A session that
// listened past the silence threshold without a result or an error reports
// that nothing was heard.
func (m *Manager) HandleEnd() {
	m.mu.Lock()
	m.cancelTimeoutLocked()
	m.sessionActive = false
	m.awaitingEnd = false
	if !m.resultHandled && m.listening && !m.startedAt.IsZero() &&
		m.clock.Now().Sub(m.startedAt) > m.minSilence {
		m.setErrorLocked(MsgHeardNothing)
	}
	m.listening = false
	if m.state == StateListening {
		m.state = StateIdle
	}
	m.mu.Unlock()
	m.changed()
}

// ErrorMessage maps a recognizer error code to its user-facing message.
func ErrorMessage(code string) string {
	switch code {
	case "no-speech":
		return MsgNoSpeech
	case "not-allowed":
		return MsgNotAllowed
	case "network":
		return MsgNetwork
	case "aborted":
		return ""
	default:
		return "Feil: " + code
	}
}

func (m *Manager) setErrorLocked(msg string) {
	m.state = StateError
	m.errMsg = msg
	m.cancelClearLocked()
	m.clearGen++
	gen := m.clearGen
	m.stopClear = m.clock.AfterFunc(m.errorClear, func() {
		m.mu.Lock()
		if m.clearGen != gen {
			m.mu.Unlock()
			return
		}
		m.stopClear = nil
		m.state = StateIdle
		m.errMsg = ""
		m.mu.Unlock()
		m.changed()
	})
}

func (m *Manager) cancelClearLocked() {
	if m.stopClear != nil {
		m.stopClear()
		m.stopClear = nil
	}
}

func (m *Manager) cancelTimeoutLocked() {
	if m.stopTimeout != nil {
		m.stopTimeout()
		m.stopTimeout = nil
	}
}

func (m *Manager) changed() {
	m.mu.Lock()
	fn := m.onChange
	status := m.statusLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}
