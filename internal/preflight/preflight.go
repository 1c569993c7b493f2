package preflight

import (
	"context"

	"punchout/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config. box
// may be nil when the outbox could not be opened.
func RunAll(ctx context.Context, cfg *config.Config, box HealthChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckConfig(cfg))
	results = append(results, CheckRules(cfg))
	results = append(results, CheckOutbox(ctx, box))
	results = append(results, CheckExportFromConfig(ctx, cfg))

	return results
}
