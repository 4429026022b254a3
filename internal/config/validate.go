package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one [providers.<name>] section is required")
	}
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		if p.URL == "" {
			return fmt.Errorf("providers.%s.url must be set", name)
		}
		parsed, err := url.Parse(p.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("providers.%s.url must be an absolute URL, got %q", name, p.URL)
		}
		if p.TimeoutSeconds <= 0 {
			return fmt.Errorf("providers.%s.timeout_seconds must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.FailurePolicy {
	case FailurePolicyRetry, FailurePolicyAbort:
	default:
		return fmt.Errorf("workflow.failure_policy must be %q or %q, got %q", FailurePolicyRetry, FailurePolicyAbort, c.Workflow.FailurePolicy)
	}
	if c.Workflow.MaxStageAttempts < 1 {
		return errors.New("workflow.max_stage_attempts must be >= 1")
	}
	return nil
}
