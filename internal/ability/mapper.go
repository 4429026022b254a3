package ability

import (
	"maps"

	"supportflow/internal/state"
)

// ParamFunc builds the argument bundle for one ability from workflow state.
type ParamFunc func(*state.State) (map[string]any, error)

// Mapper resolves call parameters through a per-ability table. Abilities
// missing from the table receive the base parameters.
type Mapper struct {
	table map[Name]ParamFunc
}

// NewMapper returns a mapper over the default table with overrides applied on top.
func NewMapper(overrides map[Name]ParamFunc) *Mapper {
	table := DefaultParams()
	maps.Copy(table, overrides)
	return &Mapper{table: table}
}

// Params returns the parameters for name given the current state.
func (m *Mapper) Params(name Name, st *state.State) (map[string]any, error) {
	if m != nil {
		if fn, ok := m.table[name]; ok && fn != nil {
			return fn(st)
		}
	}
	return BaseParams(st), nil
}

// BaseParams is the identity bundle every ability may rely on.
func BaseParams(st *state.State) map[string]any {
	return map[string]any{
		"ticket_id":      st.TicketID,
		"customer_name":  st.CustomerName,
		"customer_email": st.CustomerEmail,
		"priority":       st.Priority,
	}
}

func withBase(st *state.State, extra map[string]any) map[string]any {
	params := BaseParams(st)
	maps.Copy(params, extra)
	return params
}

func fixed(fn func(*state.State) map[string]any) ParamFunc {
	return func(st *state.State) (map[string]any, error) { return fn(st), nil }
}

// DefaultParams returns a fresh copy of the built-in parameter table.
func DefaultParams() map[Name]ParamFunc {
	return map[Name]ParamFunc{
		AcceptPayload: fixed(func(st *state.State) map[string]any {
			return map[string]any{"query": st.OriginalQuery}
		}),
		ParseRequestText: fixed(func(st *state.State) map[string]any {
			return map[string]any{"text": st.OriginalQuery}
		}),
		ExtractEntities: fixed(func(st *state.State) map[string]any {
			return map[string]any{"text": st.OriginalQuery}
		}),
		NormalizeFields: fixed(BaseParams),
		EnrichRecords: fixed(func(st *state.State) map[string]any {
			return withBase(st, map[string]any{"entities": st.ExtractedEntities})
		}),
		ClarifyQuestion: fixed(func(st *state.State) map[string]any {
			return map[string]any{"original_query": st.OriginalQuery, "entities": st.ExtractedEntities}
		}),
		KnowledgeBaseSearch: fixed(func(st *state.State) map[string]any {
			return map[string]any{"query": st.OriginalQuery, "entities": st.ExtractedEntities}
		}),
		SolutionEvaluation: fixed(func(st *state.State) map[string]any {
			return map[string]any{"query": st.OriginalQuery, "kb_results": st.KnowledgeBaseResults}
		}),
		EscalationDecision: fixed(func(st *state.State) map[string]any {
			var score any
			if st.SolutionScore != nil {
				score = *st.SolutionScore
			}
			return map[string]any{"solution_score": score, "priority": st.Priority}
		}),
		ResponseGeneration: fixed(func(st *state.State) map[string]any {
			return map[string]any{"solution_data": st.KnowledgeBaseResults, "customer_query": st.OriginalQuery}
		}),
		UpdateTicket: fixed(func(st *state.State) map[string]any {
			return withBase(st, map[string]any{"status": "resolved"})
		}),
		ExecuteAPICalls: fixed(func(st *state.State) map[string]any {
			return map[string]any{"response_data": st.ResponseText}
		}),
		OutputPayload: func(st *state.State) (map[string]any, error) {
			snap, err := st.Snapshot()
			if err != nil {
				return nil, err
			}
			return map[string]any{"state": snap}, nil
		},
	}
}
