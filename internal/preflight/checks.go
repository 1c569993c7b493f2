package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"punchout/internal/config"
	"punchout/internal/outbox"
	"punchout/internal/schema"
)

// HealthChecker is the outbox surface the outbox check needs.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (outbox.DatabaseHealth, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckConfig runs config validation.
func CheckConfig(cfg *config.Config) Result {
	const name = "Config"
	if err := cfg.Validate(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "valid"}
}

// CheckRules verifies that every schema type the motor instantiates from the
// admin rules has a definition. Conditional schemas only name questions and
// are not checked.
func CheckRules(cfg *config.Config) Result {
	const name = "Rules"
	admin := cfg.Admin
	for _, req := range admin.RequiredSchemas {
		if _, ok := schema.Get(schema.GroupPreDay, req.Schema); !ok {
			return Result{Name: name, Detail: fmt.Sprintf("required schema %q is not a pre-day form", req.Schema)}
		}
	}
	for _, typ := range admin.AvailablePreDaySchemas {
		if _, ok := schema.Get(schema.GroupPreDay, typ); !ok {
			return Result{Name: name, Detail: fmt.Sprintf("pre-day schema %q is unknown", typ)}
		}
	}
	for _, typ := range admin.NoteConversionTargets {
		if _, ok := schema.Get(schema.GroupConversion, typ); !ok {
			return Result{Name: name, Detail: fmt.Sprintf("conversion target %q is unknown", typ)}
		}
	}
	detail := fmt.Sprintf("%d required, %d conditional", len(admin.RequiredSchemas), len(admin.ConditionalSchemas))
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckOutbox verifies the outbox database is readable and migrated.
func CheckOutbox(ctx context.Context, box HealthChecker) Result {
	const name = "Outbox"
	if box == nil {
		return Result{Name: name, Detail: "not opened"}
	}
	health, err := box.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.DatabaseExists {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", health.DBPath)}
	}
	if !health.TableExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (missing outbox_items table)", health.DBPath)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (schema v%d, %d items)", health.DBPath, health.SchemaVersion, health.TotalItems),
	}
}

// CheckExportFromConfig checks the export endpoint when export is enabled.
func CheckExportFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Export endpoint"
	if strings.TrimSpace(cfg.Export.Endpoint) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if strings.TrimSpace(cfg.Admin.UserID) == "" {
		return Result{Name: name, Detail: "admin.user_id missing (days are not exported)"}
	}
	return CheckEndpoint(ctx, name, cfg.Export.Endpoint, cfg.RequestTimeout())
}

// CheckEndpoint verifies the endpoint answers HTTP. Delivery requires a signed
// POST, so an authentication rejection still counts as reachable.
func CheckEndpoint(ctx context.Context, name, endpoint string, timeout time.Duration) Result {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Passed: true, Detail: "Reachable (authentication required)"}
	default:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (endpoint unreachable)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
