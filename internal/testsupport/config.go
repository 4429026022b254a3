package testsupport

import (
	"path/filepath"
	"testing"

	"supportflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Events.NatsURL = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProviderURL points every configured provider at url.
func WithProviderURL(url string) ConfigOption {
	return func(b *configBuilder) {
		for name, p := range b.cfg.Providers {
			p.URL = url
			b.cfg.Providers[name] = p
		}
	}
}

// WithFailurePolicy overrides the workflow failure policy and attempt budget.
func WithFailurePolicy(policy string, attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.FailurePolicy = policy
		b.cfg.Workflow.MaxStageAttempts = attempts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
