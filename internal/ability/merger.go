package ability

import (
	"encoding/json"
	"fmt"
	"maps"

	"supportflow/internal/services"
	"supportflow/internal/state"
)

// MergeFunc writes a successful payload into the state field it owns.
type MergeFunc func(st *state.State, data map[string]any) error

// Merger folds ability results into workflow state through a per-ability
// table. Unknown abilities and failed results are ignored.
type Merger struct {
	table map[Name]MergeFunc
}

// NewMerger returns a merger over the default table with overrides applied on top.
func NewMerger(overrides map[Name]MergeFunc) *Merger {
	table := DefaultMerges()
	maps.Copy(table, overrides)
	return &Merger{table: table}
}

// Merge applies results in order. The first type mismatch stops the merge and
// is returned as a validation error.
func (m *Merger) Merge(st *state.State, results []Result) error {
	for _, res := range results {
		if !res.Success {
			continue
		}
		fn, ok := m.table[res.Ability]
		if !ok || fn == nil {
			continue
		}
		if err := fn(st, res.Data); err != nil {
			return services.Wrap(services.ErrValidation, "", "merge "+string(res.Ability), "unexpected payload", err)
		}
	}
	return nil
}

// DefaultMerges returns a fresh copy of the built-in merge table.
func DefaultMerges() map[Name]MergeFunc {
	return map[Name]MergeFunc{
		ParseRequestText: func(st *state.State, data map[string]any) error {
			st.ParsedRequest = cloneMap(data)
			return nil
		},
		ExtractEntities: func(st *state.State, data map[string]any) error {
			st.ExtractedEntities = cloneMap(data)
			return nil
		},
		NormalizeFields: func(st *state.State, data map[string]any) error {
			st.NormalizedFields = cloneMap(data)
			return nil
		},
		EnrichRecords: func(st *state.State, data map[string]any) error {
			st.EnrichedData = cloneMap(data)
			return nil
		},
		ExtractAnswer: func(st *state.State, data map[string]any) error {
			v, err := stringField(data, "answer")
			if err != nil {
				return err
			}
			st.CustomerAnswer = v
			return nil
		},
		KnowledgeBaseSearch: func(st *state.State, data map[string]any) error {
			v, err := sliceField(data, "results")
			if err != nil {
				return err
			}
			st.KnowledgeBaseResults = v
			return nil
		},
		SolutionEvaluation: func(st *state.State, data map[string]any) error {
			v, err := floatField(data, "score")
			if err != nil {
				return err
			}
			st.SolutionScore = v
			return nil
		},
		ResponseGeneration: func(st *state.State, data map[string]any) error {
			v, err := stringField(data, "response")
			if err != nil {
				return err
			}
			st.ResponseText = v
			return nil
		},
		ExecuteAPICalls: func(st *state.State, data map[string]any) error {
			st.APIResults = cloneMap(data)
			return nil
		},
		OutputPayload: func(st *state.State, data map[string]any) error {
			st.FinalPayload = cloneMap(data)
			return nil
		},
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	return maps.Clone(in)
}

func stringField(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", key, raw)
	}
	return s, nil
}

func sliceField(data map[string]any, key string) ([]any, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %T", key, raw)
	}
	return append([]any(nil), s...), nil
}

func floatField(data map[string]any, key string) (*float64, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%s: expected number, got %T", key, raw)
	}
	return &f, nil
}
