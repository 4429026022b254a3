package workflow

import (
	"strings"

	"supportflow/internal/config"
	"supportflow/internal/services"
	"supportflow/internal/stage"
)

// LoadCatalog returns the catalog named by cfg, or the built-in pipeline when
// no catalog file is configured.
func LoadCatalog(cfg *config.Config) (*stage.Catalog, error) {
	if cfg == nil || strings.TrimSpace(cfg.Workflow.CatalogPath) == "" {
		return stage.DefaultCatalog(), nil
	}
	return stage.LoadCatalogFile(cfg.Workflow.CatalogPath)
}

// OptionsFromConfig maps the [workflow] section onto runner options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, nil
	}
	policy, err := ParseFailurePolicy(cfg.Workflow.FailurePolicy)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "", "workflow options", err.Error(), nil)
	}
	return Options{
		Policy:           policy,
		MaxStageAttempts: cfg.Workflow.MaxStageAttempts,
	}, nil
}
