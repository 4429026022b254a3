package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/logging"
	"supportflow/internal/services"
	"supportflow/internal/stage"
	"supportflow/internal/state"
)

// Clients resolves the provider client for a stage.
type Clients interface {
	Client(name string) (ability.Client, bool)
}

// Executor performs stage visits against a catalog.
type Executor struct {
	Catalog    *stage.Catalog
	Clients    Clients
	Dispatcher *ability.Dispatcher
	Merger     *ability.Merger
	Logger     *slog.Logger
	Now        func() time.Time
}

// Outcome summarizes one visit.
type Outcome struct {
	Stage  stage.ID
	Next   stage.ID
	Record state.StageRecord
	// Advanced is false when the visit failed before the successor was known;
	// CurrentStage is then left unchanged.
	Advanced bool
	// Terminal is true when the visited stage ends the traversal.
	Terminal bool
	Err      error
}

type visit struct {
	def      stage.Definition
	planned  []ability.Name
	results  []ability.Result
	next     stage.ID
	resolved bool
}

// Visit executes the stage named by st.CurrentStage.
func (e *Executor) Visit(ctx context.Context, st *state.State) Outcome {
	id := stage.ID(st.CurrentStage)
	stageCtx := services.WithStage(ctx, string(id))
	logger := logging.WithContext(stageCtx, e.logger())

	out := Outcome{Stage: id}
	record := state.StageRecord{
		Stage:             string(id),
		Timestamp:         e.now(),
		Attempt:           st.Visits(string(id)) + 1,
		AbilitiesExecuted: []string{},
		ServerCalls:       []state.ServerCall{},
	}

	v, err := e.run(stageCtx, logger, id, st)
	record.AbilitiesExecuted = executedNames(v)
	record.ServerCalls = serverCalls(v.results)

	if err != nil {
		st.AppendError(string(id), err)
		record.Status = state.StatusError
		record.Error = err.Error()
		st.AppendRecord(record)
		out.Err = err
		out.Record = record
		if v.resolved {
			e.advance(st, &out, v)
		}
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Int("attempt", record.Attempt),
			logging.Bool("advanced", out.Advanced),
			logging.String(logging.FieldErrorHint, "inspect the provider logs for the failing ability"),
			logging.Error(err),
		)
		return out
	}

	record.Status = state.StatusSuccess
	if len(v.planned) == 0 {
		record.Status = state.StatusSkipped
	}
	st.AppendRecord(record)
	out.Record = record
	e.advance(st, &out, v)

	if record.Status == state.StatusSkipped {
		logger.Info("stage skipped", logging.String(logging.FieldEventType, "stage_skipped"), logging.String("next_stage", string(out.Next)))
	} else {
		failed := 0
		for _, r := range v.results {
			if !r.Success {
				failed++
			}
		}
		logger.Info(
			"stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Int("abilities", len(v.results)),
			logging.Int("failed_abilities", failed),
			logging.String("next_stage", string(out.Next)),
		)
	}
	return out
}

func (e *Executor) run(ctx context.Context, logger *slog.Logger, id stage.ID, st *state.State) (visit, error) {
	var v visit
	if e.Catalog == nil {
		return v, services.Wrap(services.ErrConfiguration, string(id), "visit", "no catalog", nil)
	}
	def, ok := e.Catalog.Lookup(id)
	if !ok {
		return v, services.Wrap(services.ErrConfiguration, "", "visit", fmt.Sprintf("stage %q not in catalog", id), nil)
	}
	v.def = def

	var client ability.Client
	if e.Clients != nil {
		client, _ = e.Clients.Client(def.Provider)
	}
	if client == nil {
		return v, services.Wrap(services.ErrConfiguration, "", "resolve provider", fmt.Sprintf("unknown provider %q", def.Provider), nil)
	}

	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("mode", string(def.Mode)),
		logging.String(logging.FieldProvider, def.Provider),
	)

	remaining := def.Abilities
	if def.Mode == stage.Deterministic {
		v.planned = def.Abilities
		v.next, v.resolved = def.Successor(st), true
	} else {
		plan, err := stage.SelectorFor(id)(ctx, def, st, stage.SelectEnv{
			Dispatcher: e.dispatcher(),
			Merger:     e.merger(),
			Client:     client,
		})
		v.results = append(v.results, plan.Done...)
		if err != nil {
			v.planned = nil
			return v, fmt.Errorf("select abilities: %w", err)
		}
		v.planned = plan.Abilities
		remaining = plan.Remaining()
		v.next, v.resolved = def.Successor(st), true
		logger.Debug(
			"abilities selected",
			logging.String(logging.FieldDecisionType, "ability_selection"),
			logging.Any("abilities", ability.Names(plan.Abilities)),
			logging.Bool("clarification_needed", st.ClarificationNeeded),
			logging.Bool("escalation_required", st.EscalationRequired),
		)
	}

	if len(remaining) == 0 {
		return v, nil
	}
	results, err := e.dispatcher().Dispatch(ctx, client, remaining, st)
	v.results = append(v.results, results...)
	if err != nil {
		return v, err
	}
	if err := e.merger().Merge(st, results); err != nil {
		return v, err
	}
	return v, nil
}

func (e *Executor) advance(st *state.State, out *Outcome, v visit) {
	out.Next = v.next
	out.Advanced = true
	out.Terminal = v.next == ""
	if v.next != "" {
		st.CurrentStage = string(v.next)
	}
}

// executedNames lists abilities that ran. On a clean visit that is the planned
// list; on failure it is only what was actually dispatched.
func executedNames(v visit) []string {
	if v.planned != nil && len(v.results) == len(v.planned) {
		return ability.Names(v.planned)
	}
	out := make([]string, len(v.results))
	for i, r := range v.results {
		out[i] = string(r.Ability)
	}
	return out
}

func serverCalls(results []ability.Result) []state.ServerCall {
	calls := make([]state.ServerCall, len(results))
	for i, r := range results {
		calls[i] = state.ServerCall{
			Provider: r.Provider,
			Ability:  string(r.Ability),
			Success:  r.Success,
			Error:    r.Error,
		}
	}
	return calls
}

func (e *Executor) dispatcher() *ability.Dispatcher {
	if e.Dispatcher == nil {
		return ability.NewDispatcher(nil)
	}
	return e.Dispatcher
}

func (e *Executor) merger() *ability.Merger {
	if e.Merger == nil {
		return ability.NewMerger(nil)
	}
	return e.Merger
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

func (e *Executor) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}
