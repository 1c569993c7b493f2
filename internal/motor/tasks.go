package motor

import (
	"punchout/internal/daylog"
	"punchout/internal/logging"
)

// task is deferred work bound to the session that scheduled it.
type task struct {
	sessionID string
	name      string
	run       func()
}

func (m *Motor) enqueueLocked(name string, run func()) {
	m.tasks = append(m.tasks, task{sessionID: m.day.SessionID, name: name, run: run})
	if m.autoRun {
		go m.Flush()
	}
}

// Flush runs every queued task in FIFO order. Tasks from a session that is no
// longer live are dropped. It reports how many tasks ran.
func (m *Motor) Flush() int {
	var ran int
	m.command("flush", func() Result {
		ran = m.drainLocked()
		if ran == 0 {
			return rejected("")
		}
		return applied()
	})
	return ran
}

// Pending returns the number of queued tasks.
func (m *Motor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Motor) drainLocked() int {
	ran := 0
	for len(m.tasks) > 0 {
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		if m.day == nil || m.day.SessionID != t.sessionID || m.appState != daylog.Active {
			m.logger.Debug("dropping deferred task from a closed session",
				logging.String("task", t.name),
				logging.String("session", t.sessionID),
			)
			continue
		}
		t.run()
		ran++
	}
	if ran > 0 {
		m.saveLocked()
	}
	return ran
}
