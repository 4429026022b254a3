package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/logging"
	"supportflow/internal/notifications"
	"supportflow/internal/services"
	"supportflow/internal/stage"
	"supportflow/internal/stageexec"
	"supportflow/internal/state"
	"supportflow/internal/store"
)

const defaultMaxStageAttempts = 3

// Clients resolves and validates provider clients.
type Clients interface {
	stageexec.Clients
	Require(names ...string) error
}

// Checkpointer persists traversal progress.
type Checkpointer interface {
	Checkpoint(ctx context.Context, workflowID string, st *state.State) error
	CompleteWorkflow(ctx context.Context, workflowID string, st *state.State, outcome store.Completion) error
}

// Metrics receives traversal instrumentation.
type Metrics interface {
	ObserveStage(stage string, status state.Status)
	ObserveAbility(res ability.Result, elapsed time.Duration)
	ObserveWorkflow(success bool)
}

// Options configures a Runner. Zero values select defaults.
type Options struct {
	Policy           FailurePolicy
	MaxStageAttempts int
	// MaxSteps bounds the number of stage visits per traversal. Defaults to
	// the catalog size times MaxStageAttempts.
	MaxSteps int
	Mapper   *ability.Mapper
	Merger   *ability.Merger
	Store    Checkpointer
	Notifier notifications.Service
	Metrics  Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Runner traverses the stage graph for individual requests.
type Runner struct {
	catalog  *stage.Catalog
	exec     *stageexec.Executor
	policy   FailurePolicy
	attempts int
	maxSteps int
	store    Checkpointer
	notifier notifications.Service
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Request is one support request to traverse.
type Request struct {
	Input state.Input
	// WorkflowID identifies the persisted workflow record, when one exists.
	WorkflowID string
}

// Result is reported once per traversal.
type Result struct {
	Success      bool                `json:"success"`
	TicketID     string              `json:"ticket_id"`
	WorkflowID   string              `json:"workflow_id,omitempty"`
	CurrentStage string              `json:"current_stage"`
	FinalPayload map[string]any      `json:"final_payload"`
	StageLogs    []state.StageRecord `json:"stage_logs"`
	Errors       []string            `json:"errors"`
	Error        string              `json:"error,omitempty"`
}

// New builds a Runner. Every provider the catalog references must be known to
// clients; otherwise a configuration error is returned.
func New(catalog *stage.Catalog, clients Clients, opts Options) (*Runner, error) {
	if catalog == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build runner", "stage catalog is required", nil)
	}
	if clients == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build runner", "provider clients are required", nil)
	}
	if err := clients.Require(catalog.Providers()...); err != nil {
		return nil, err
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyRetry
	}
	if policy != PolicyRetry && policy != PolicyAbort {
		return nil, services.Wrap(services.ErrConfiguration, "", "build runner", fmt.Sprintf("unknown failure policy %q", policy), nil)
	}
	attempts := opts.MaxStageAttempts
	if attempts <= 0 {
		attempts = defaultMaxStageAttempts
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = catalog.Len() * attempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NoopService{}
	}

	dispatcher := ability.NewDispatcher(opts.Mapper)
	if opts.Metrics != nil {
		dispatcher.Observer = opts.Metrics.ObserveAbility
	}
	merger := opts.Merger
	if merger == nil {
		merger = ability.NewMerger(nil)
	}

	return &Runner{
		catalog: catalog,
		exec: &stageexec.Executor{
			Catalog:    catalog,
			Clients:    clients,
			Dispatcher: dispatcher,
			Merger:     merger,
			Logger:     logger,
			Now:        now,
		},
		policy:   policy,
		attempts: attempts,
		maxSteps: maxSteps,
		store:    opts.Store,
		notifier: notifier,
		metrics:  opts.Metrics,
		logger:   logger,
		now:      now,
	}, nil
}

// Catalog returns the stage graph the runner traverses.
func (r *Runner) Catalog() *stage.Catalog { return r.catalog }

// Run traverses the catalog from its entry stage until a terminal stage
// completes or the traversal aborts.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	st := state.New(req.Input, string(r.catalog.Entry()))
	if st.TicketID == "" {
		st.TicketID = state.FallbackTicketID(r.now())
	}
	ctx = services.WithTicketID(ctx, st.TicketID)
	ctx = services.WithWorkflowID(ctx, req.WorkflowID)
	logger := logging.WithContext(ctx, r.logger)

	logger.Info(
		"workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.String("entry_stage", st.CurrentStage),
		logging.String("priority", st.Priority),
	)

	abortErr := r.traverse(ctx, logger, req.WorkflowID, st)
	result := Result{
		Success:      abortErr == nil,
		TicketID:     st.TicketID,
		WorkflowID:   req.WorkflowID,
		CurrentStage: st.CurrentStage,
		FinalPayload: st.FinalPayload,
		StageLogs:    st.StageLogs,
		Errors:       st.Errors,
	}
	if abortErr != nil {
		result.Error = abortErr.Error()
	}
	r.finish(ctx, logger, st, result)
	return result
}

func (r *Runner) traverse(ctx context.Context, logger *slog.Logger, workflowID string, st *state.State) error {
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow cancelled at stage %s: %w", st.CurrentStage, err)
		}
		if steps >= r.maxSteps {
			return fmt.Errorf("workflow exceeded %d stage visits at stage %s", r.maxSteps, st.CurrentStage)
		}

		out := r.exec.Visit(ctx, st)
		r.observe(ctx, logger, workflowID, st, out)

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow cancelled at stage %s: %w", out.Stage, err)
		}
		if out.Advanced {
			if out.Terminal {
				return nil
			}
			continue
		}
		if services.IsFatal(out.Err) {
			return fmt.Errorf("stage %s: %w", out.Stage, out.Err)
		}
		switch r.policy {
		case PolicyAbort:
			return fmt.Errorf("stage %s failed: %w", out.Stage, out.Err)
		default:
			if st.Visits(string(out.Stage)) >= r.attempts {
				return fmt.Errorf("stage %s failed after %d attempts: %w", out.Stage, r.attempts, out.Err)
			}
			logger.Warn(
				"retrying stage",
				logging.String(logging.FieldEventType, "stage_retry"),
				logging.String(logging.FieldStage, string(out.Stage)),
				logging.Int("attempt", out.Record.Attempt),
				logging.Int("max_attempts", r.attempts),
				logging.String(logging.FieldErrorHint, "the stage will be re-entered with the current state"),
				logging.String(logging.FieldImpact, "traversal continues"),
			)
		}
	}
}

func (r *Runner) observe(ctx context.Context, logger *slog.Logger, workflowID string, st *state.State, out stageexec.Outcome) {
	if r.metrics != nil {
		r.metrics.ObserveStage(string(out.Stage), out.Record.Status)
	}
	if r.store != nil && workflowID != "" {
		if err := r.store.Checkpoint(ctx, workflowID, st); err != nil {
			logger.Warn(
				"workflow checkpoint failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "checkpoint_failed"),
				logging.String(logging.FieldErrorHint, "check database permissions and disk space"),
				logging.String(logging.FieldImpact, "status queries may lag behind the traversal"),
			)
		}
	}
	if out.Record.Status == state.StatusError {
		event := notifications.StageFailed{
			WorkflowID: workflowID,
			TicketID:   st.TicketID,
			Stage:      string(out.Stage),
			Attempt:    out.Record.Attempt,
			Advanced:   out.Advanced,
			Error:      out.Record.Error,
			Timestamp:  out.Record.Timestamp,
		}
		if err := r.notifier.NotifyStageFailed(context.WithoutCancel(ctx), event); err != nil {
			logger.Debug("stage failure notification failed", logging.Error(err))
		}
	}
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, st *state.State, result Result) {
	persistCtx := context.WithoutCancel(ctx)
	if r.metrics != nil {
		r.metrics.ObserveWorkflow(result.Success)
	}
	if r.store != nil && result.WorkflowID != "" {
		err := r.store.CompleteWorkflow(persistCtx, result.WorkflowID, st, store.Completion{Success: result.Success, Error: result.Error})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("failed to persist workflow result", logging.Error(err))
		}
	}
	event := notifications.WorkflowCompleted{
		WorkflowID:   result.WorkflowID,
		TicketID:     result.TicketID,
		Success:      result.Success,
		CurrentStage: result.CurrentStage,
		FinalPayload: result.FinalPayload,
		StageLogs:    result.StageLogs,
		Errors:       result.Errors,
		Error:        result.Error,
		Timestamp:    r.now(),
	}
	if err := r.notifier.NotifyWorkflowCompleted(persistCtx, event); err != nil {
		logger.Debug("workflow completion notification failed", logging.Error(err))
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.Bool("success", result.Success),
		logging.String("final_stage", result.CurrentStage),
		logging.Int("stage_visits", len(result.StageLogs)),
		logging.Int("stage_errors", len(result.Errors)),
	}
	if result.Success {
		logger.Info("workflow completed", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs, logging.String("error_message", result.Error))
	logging.ErrorWithContext(logger, "workflow aborted", "workflow_complete", attrs...)
}
