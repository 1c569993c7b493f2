package voice

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// LineRecognizer treats each line of a reader as one spoken utterance. An
// empty line is reported as no-speech and end of input as aborted.
type LineRecognizer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	manager *Manager
	running bool
	eof     bool
}

// NewLineRecognizer reads utterances from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

// Attach binds the recognizer to the manager whose callbacks it drives and
// registers itself as that manager's recognizer.
func (l *LineRecognizer) Attach(m *Manager) {
	l.mu.Lock()
	l.manager = m
	l.mu.Unlock()
	m.SetRecognizer(l)
}

// EOF reports whether the reader is exhausted.
func (l *LineRecognizer) EOF() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eof
}

// Start reads one line and delivers it synchronously.
func (l *LineRecognizer) Start() error {
	l.mu.Lock()
	if l.eof {
		l.mu.Unlock()
		return io.EOF
	}
	m := l.manager
	l.running = true
	l.mu.Unlock()
	if m == nil {
		return nil
	}

	m.HandleStart()
	if !l.scanner.Scan() {
		l.mu.Lock()
		l.eof = true
		l.mu.Unlock()
		m.HandleError("aborted")
		l.Stop()
		return nil
	}
	line := strings.TrimSpace(l.scanner.Text())
	if line == "" {
		m.HandleError("no-speech")
		l.Stop()
		return nil
	}
	m.HandleResult(line, true)
	l.Stop()
	return nil
}

// Stop ends the current utterance once.
func (l *LineRecognizer) Stop() {
	l.mu.Lock()
	m := l.manager
	wasRunning := l.running
	l.running = false
	l.mu.Unlock()
	if wasRunning && m != nil {
		m.HandleEnd()
	}
}
