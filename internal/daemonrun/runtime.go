package daemonrun

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"supportflow/internal/api"
	"supportflow/internal/config"
	"supportflow/internal/logging"
	"supportflow/internal/metrics"
	"supportflow/internal/notifications"
	"supportflow/internal/provider"
	"supportflow/internal/store"
	"supportflow/internal/workflow"
)

// Runtime holds the collaborators built from one configuration.
type Runtime struct {
	Store    *store.Store
	Metrics  *metrics.Recorder
	Notifier notifications.Service
	Runner   *workflow.Runner
	Service  *api.Service
	Logger   *slog.Logger
}

// Assemble opens the store, connects the event publisher, validates the
// catalog against the configured providers, and builds the runner. The
// caller owns the returned Runtime and must Close it.
func Assemble(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	catalog, err := workflow.LoadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load stage catalog: %w", err)
	}
	registry, err := provider.NewRegistry(cfg.Providers, catalog.Providers(),
		provider.WithLogger(logging.NewComponentLogger(logger, "provider")))
	if err != nil {
		return nil, err
	}
	opts, err := workflow.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Logger: logger}
	rt.Store, err = store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.Notifier, err = notifications.NewService(cfg, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect events: %w", err)
	}
	if cfg.Metrics.Enabled {
		rt.Metrics = metrics.New()
	}

	opts.Store = rt.Store
	opts.Notifier = rt.Notifier
	if rt.Metrics != nil {
		opts.Metrics = rt.Metrics
	}
	opts.Logger = logging.NewComponentLogger(logger, "workflow")
	rt.Runner, err = workflow.New(catalog, registry, opts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = api.NewService(rt.Runner, rt.Store, logger)
	return rt, nil
}

// Handler returns the HTTP routes for the runtime.
func (rt *Runtime) Handler() http.Handler {
	var metricsHandler http.Handler
	if rt.Metrics != nil {
		metricsHandler = rt.Metrics.Handler()
	}
	return api.NewHandler(rt.Service, metricsHandler, rt.Logger)
}

// Close releases the event connection and the store.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.Notifier != nil {
		errs = append(errs, rt.Notifier.Close())
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	return errors.Join(errs...)
}
