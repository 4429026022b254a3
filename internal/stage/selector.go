package stage

import (
	"context"

	"supportflow/internal/ability"
	"supportflow/internal/services"
	"supportflow/internal/state"
)

const (
	// DefaultEntityConfidence applies when extracted entities carry no usable confidence.
	DefaultEntityConfidence = 0.7
	clarifyThreshold        = 0.8
	escalationThreshold     = 0.8
)

// Plan is a selector's decision for one visit. Abilities is the full list for
// the audit record; Done holds results for the leading abilities the selector
// already dispatched and merged, which the executor must not call again.
type Plan struct {
	Abilities []ability.Name
	Done      []ability.Result
}

// Remaining returns the abilities still to dispatch.
func (p Plan) Remaining() []ability.Name {
	if len(p.Done) >= len(p.Abilities) {
		return nil
	}
	return p.Abilities[len(p.Done):]
}

// SelectEnv gives selectors access to the stage provider for scoring calls.
type SelectEnv struct {
	Dispatcher *ability.Dispatcher
	Merger     *ability.Merger
	Client     ability.Client
}

// Selector chooses the abilities for a dynamic stage and sets routing flags on st.
type Selector func(ctx context.Context, def Definition, st *state.State, env SelectEnv) (Plan, error)

// SelectorFor returns the selector bound to id. Stages without a dedicated
// policy run their declared ability list.
func SelectorFor(id ID) Selector {
	switch id {
	case Ask:
		return selectClarification
	case Decide:
		return selectResolution
	default:
		return selectDeclared
	}
}

func selectDeclared(_ context.Context, def Definition, _ *state.State, _ SelectEnv) (Plan, error) {
	return Plan{Abilities: append([]ability.Name(nil), def.Abilities...)}, nil
}

// EntityConfidence reads the extraction confidence. Entities without a
// usable confidence value count as DefaultEntityConfidence; ok is false when
// nothing was extracted at all.
func EntityConfidence(st *state.State) (confidence float64, ok bool) {
	if len(st.ExtractedEntities) == 0 {
		return 0, false
	}
	switch v := st.ExtractedEntities["confidence"].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return DefaultEntityConfidence, true
	}
}

// selectClarification asks a clarifying question when extraction is unsure.
// With no entities there is nothing to clarify.
func selectClarification(_ context.Context, _ Definition, st *state.State, _ SelectEnv) (Plan, error) {
	confidence, ok := EntityConfidence(st)
	st.ClarificationNeeded = ok && confidence < clarifyThreshold
	if st.ClarificationNeeded {
		return Plan{Abilities: []ability.Name{ability.ClarifyQuestion}}, nil
	}
	return Plan{Abilities: []ability.Name{}}, nil
}

// selectResolution scores the proposed solution and escalates when the score
// is low, the ticket is high priority, or no score is available. A failed
// scoring call stays in the audit record and the stage still advances.
func selectResolution(ctx context.Context, _ Definition, st *state.State, env SelectEnv) (Plan, error) {
	if env.Dispatcher == nil || env.Merger == nil {
		return Plan{}, services.Wrap(services.ErrConfiguration, string(Decide), "select abilities", "scoring requires a dispatcher and merger", nil)
	}
	scoring := []ability.Name{ability.SolutionEvaluation}
	st.SolutionScore = nil
	done, err := env.Dispatcher.Dispatch(ctx, env.Client, scoring, st)
	plan := Plan{Abilities: scoring, Done: done}
	if err != nil {
		return plan, err
	}
	if err := env.Merger.Merge(st, done); err != nil {
		return plan, err
	}

	st.EscalationRequired = st.SolutionScore == nil || *st.SolutionScore < escalationThreshold || st.HighPriority()
	if st.EscalationRequired {
		plan.Abilities = []ability.Name{ability.SolutionEvaluation, ability.EscalationDecision, ability.UpdatePayload}
	} else {
		plan.Abilities = []ability.Name{ability.SolutionEvaluation, ability.UpdatePayload}
	}
	return plan, nil
}
