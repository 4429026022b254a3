package preflight

import (
	"context"
	"strings"

	"supportflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, name := range cfg.ProviderNames() {
		results = append(results, CheckProvider(ctx, name, cfg.Providers[name]))
	}
	if strings.TrimSpace(cfg.Events.NatsURL) != "" {
		results = append(results, CheckEvents(cfg.Events.NatsURL))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
