package motor

import (
	"context"
	"net/url"
	"strings"

	"punchout/internal/config"
	"punchout/internal/daylog"
	"punchout/internal/logging"
	"punchout/internal/outbox"
)

// Export status values.
const (
	ExportDisabled = "disabled"
	ExportNoData   = "no_data"
	ExportSending  = "sending"
	ExportSent     = "sent"
	ExportFailed   = "failed"
)

func (m *Motor) externalSystem(id string) (config.ExternalSystem, bool) {
	for _, sys := range m.cfg.Admin.ExternalSystems {
		if sys.ID == id {
			return sys, true
		}
	}
	return config.ExternalSystem{}, false
}

// OpenExternalSystem records a visit to an external system and returns the
// URL to open. Punchout never writes to the system itself.
func (m *Motor) OpenExternalSystem(system string, params map[string]string) (string, Result) {
	var link string
	res := m.command("open_external_system", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		sys, ok := m.externalSystem(system)
		if !ok {
			return rejected(ReasonNotFound)
		}
		link = sys.BaseURL
		if ordre := strings.TrimSpace(params["ordre"]); ordre != "" {
			link += "?ordre=" + url.QueryEscape(ordre)
		}
		copied := make(map[string]string, len(params))
		for k, v := range params {
			copied[k] = v
		}
		m.day.ExternalTasks = append(m.day.ExternalTasks, daylog.ExternalTask{
			System:   system,
			Params:   copied,
			OpenedAt: m.now(),
		})
		m.saveLocked()
		m.setUxLocked(daylog.UxState{
			ActiveOverlay:        daylog.OverlayExternalInstruction,
			ExternalSystem:       system,
			ExternalInstructions: sys.Instructions,
		})
		m.logger.Info("external system opened", logging.String("system", system))
		return applied()
	})
	if !res.Applied {
		link = ""
	}
	return link, res
}

// ConfirmExternalTask marks the latest open visit to system as done.
func (m *Motor) ConfirmExternalTask(system string) Result {
	return m.command("confirm_external_task", func() Result {
		if m.day == nil {
			return rejected(ReasonWrongState)
		}
		tasks := m.day.ExternalTasks
		for i := len(tasks) - 1; i >= 0; i-- {
			if tasks[i].System != system || tasks[i].ConfirmedByUser {
				continue
			}
			now := m.now()
			tasks[i].ConfirmedByUser = true
			tasks[i].ConfirmedAt = &now
			m.saveLocked()
			m.clearUxLocked()
			return applied()
		}
		return rejected(ReasonNotFound)
	})
}

// CloseExternalInstruction hides the instruction overlay.
func (m *Motor) CloseExternalInstruction() Result {
	return m.command("close_external_instruction", func() Result {
		if m.ux.ActiveOverlay != daylog.OverlayExternalInstruction {
			return rejected(ReasonWrongState)
		}
		m.clearUxLocked()
		return applied()
	})
}

// ExportStatus reports the delivery state of the current day's export.
func (m *Motor) ExportStatus(ctx context.Context) string {
	m.mu.Lock()
	var exportID string
	if m.day != nil {
		exportID = m.day.ExportID
	}
	m.mu.Unlock()
	return m.exportStatus(ctx, exportID)
}

func (m *Motor) exportStatus(ctx context.Context, exportID string) string {
	if !m.cfg.ExportEnabled() {
		return ExportDisabled
	}
	if exportID == "" {
		return ExportNoData
	}
	if m.outbox == nil {
		return ExportNoData
	}
	item, err := m.outbox.Get(ctx, exportID)
	if err != nil {
		m.logger.Warn("export status unavailable", logging.ExportID(exportID), logging.Error(err))
		return ExportSending
	}
	if item == nil {
		// Sent items are pruned after the retention window.
		return ExportSent
	}
	switch item.Status {
	case outbox.StatusSent:
		return ExportSent
	case outbox.StatusFailed:
		return ExportFailed
	default:
		return ExportSending
	}
}
