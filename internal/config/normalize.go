package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	if err := c.normalizeWorkflow(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeEvents()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeProviders() {
	if c.Providers == nil {
		c.Providers = map[string]Provider{}
	}
	normalized := make(map[string]Provider, len(c.Providers))
	for name, p := range c.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if value, ok := os.LookupEnv("SUPPORTFLOW_" + strings.ToUpper(key) + "_URL"); ok && strings.TrimSpace(value) != "" {
			p.URL = value
		}
		p.URL = strings.TrimRight(strings.TrimSpace(p.URL), "/")
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = defaultProviderTimeoutSeconds
		}
		caps := make([]string, 0, len(p.Capabilities))
		seen := make(map[string]struct{}, len(p.Capabilities))
		for _, capability := range p.Capabilities {
			capability = strings.ToLower(strings.TrimSpace(capability))
			if capability == "" {
				continue
			}
			if _, dup := seen[capability]; dup {
				continue
			}
			seen[capability] = struct{}{}
			caps = append(caps, capability)
		}
		p.Capabilities = caps
		normalized[key] = p
	}
	c.Providers = normalized
}

func (c *Config) normalizeWorkflow() error {
	c.Workflow.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Workflow.FailurePolicy))
	if c.Workflow.FailurePolicy == "" {
		c.Workflow.FailurePolicy = defaultFailurePolicy
	}
	if c.Workflow.MaxStageAttempts == 0 {
		c.Workflow.MaxStageAttempts = defaultMaxStageAttempts
	}
	c.Workflow.CatalogPath = strings.TrimSpace(c.Workflow.CatalogPath)
	if c.Workflow.CatalogPath != "" {
		var err error
		if c.Workflow.CatalogPath, err = expandPath(c.Workflow.CatalogPath); err != nil {
			return fmt.Errorf("workflow.catalog_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeEvents() {
	c.Events.NatsURL = strings.TrimSpace(c.Events.NatsURL)
	if c.Events.NatsURL == "" {
		if value, ok := os.LookupEnv("NATS_URL"); ok {
			c.Events.NatsURL = strings.TrimSpace(value)
		}
	}
	c.Events.Subject = strings.Trim(strings.TrimSpace(c.Events.Subject), ".")
	if c.Events.Subject == "" {
		c.Events.Subject = defaultEventsSubject
	}
}
