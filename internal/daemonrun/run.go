package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"supportflow/internal/config"
	"supportflow/internal/daemon"
	"supportflow/internal/logging"
	"supportflow/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run serves the API until SIGINT, SIGTERM, or cmdCtx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	rt, err := Assemble(cfg, logger)
	if err != nil {
		logger.Error("assemble runtime", logging.Error(err), logging.String(logging.FieldEventType, "daemon_start_failed"))
		return err
	}
	defer rt.Close()

	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.String("database", cfg.DatabasePath()),
		logging.Int("providers", len(cfg.Providers)),
		logging.Int("stages", rt.Runner.Catalog().Len()),
		logging.String("failure_policy", cfg.Workflow.FailurePolicy),
		logging.Bool("events_enabled", cfg.Events.NatsURL != ""),
		logging.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)

	for _, check := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldErrorHint, "verify the provider URLs and directory permissions in the config file"),
			logging.String(logging.FieldImpact, "workflows touching this dependency will record failed calls"),
		)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "supportflow.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, rt.Handler(), logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("supportflow daemon shutting down")
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
