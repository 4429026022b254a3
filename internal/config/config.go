package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Provider describes one remote capability provider.
type Provider struct {
	URL            string   `toml:"url"`
	Capabilities   []string `toml:"capabilities"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Timeout returns the per-call timeout as a duration.
func (p Provider) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return defaultProviderTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Workflow contains stage traversal settings.
type Workflow struct {
	// CatalogPath optionally points at a YAML stage catalog; empty uses the built-in catalog.
	CatalogPath string `toml:"catalog_path"`
	// FailurePolicy is "retry" or "abort" and applies when a stage fails before
	// its successor is known.
	FailurePolicy    string `toml:"failure_policy"`
	MaxStageAttempts int    `toml:"max_stage_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Events configures NATS publication of workflow outcomes.
type Events struct {
	NatsURL string `toml:"nats_url"`
	Subject string `toml:"subject"`
}

// Metrics toggles the Prometheus registry and /metrics endpoint.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for supportflow.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Providers: capability provider endpoints keyed by provider name
//   - Workflow: stage catalog override and failure policy
//   - Logging: log format and level
//   - Events: NATS event publication
//   - Metrics: Prometheus instrumentation
type Config struct {
	Paths     Paths               `toml:"paths"`
	Providers map[string]Provider `toml:"providers"`
	Workflow  Workflow            `toml:"workflow"`
	Logging   Logging             `toml:"logging"`
	Events    Events              `toml:"events"`
	Metrics   Metrics             `toml:"metrics"`
}

// Search order when no --config flag is given.
const (
	userConfigPath    = "~/.config/supportflow/config.toml"
	projectConfigFile = "supportflow.toml"
)

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// Load reads the config at path, or the first of the user and project config
// files that exists when path is empty. It returns the normalized and
// validated config, the file it resolved to, and whether that file existed.
// A missing file is not an error: defaults plus environment overrides apply.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{userConfigPath, projectConfigFile}
	}

	var first string
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates required directories for server operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file backing tickets and workflow records.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "supportflow.db")
}

// LockPath returns the lock file guarding single-instance server execution.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "supportflow.lock")
}

// ProviderNames returns configured provider names in sorted order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// expandPath resolves a leading "~" to the home directory and returns an
// absolute, cleaned path. Empty stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath applies the same "~" and absolute-path rules used for config
// paths.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes the annotated sample configuration to path, creating
// its directory.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
