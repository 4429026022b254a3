package ability_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/services"
	"supportflow/internal/state"
)

type fakeClient struct {
	name   string
	calls  []ability.Name
	params []map[string]any
	reply  func(ability.Name) ability.Result
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Execute(_ context.Context, name ability.Name, params map[string]any) ability.Result {
	f.calls = append(f.calls, name)
	f.params = append(f.params, params)
	if f.reply != nil {
		return f.reply(name)
	}
	return ability.Result{Success: true, Data: map[string]any{}}
}

func newState() *state.State {
	return state.New(state.Input{
		TicketID:      "TKT-1",
		CustomerName:  "John Smith",
		CustomerEmail: "john@example.com",
		Priority:      "medium",
		Query:         "internet connection slow",
	}, "INTAKE")
}

func TestMapperDefaultTable(t *testing.T) {
	st := newState()
	st.ExtractedEntities = map[string]any{"issue": "connectivity"}
	m := ability.NewMapper(nil)

	cases := []struct {
		name ability.Name
		want map[string]any
	}{
		{ability.AcceptPayload, map[string]any{"query": "internet connection slow"}},
		{ability.ParseRequestText, map[string]any{"text": "internet connection slow"}},
		{ability.ClarifyQuestion, map[string]any{"original_query": "internet connection slow", "entities": st.ExtractedEntities}},
		{ability.UpdateTicket, map[string]any{
			"ticket_id": "TKT-1", "customer_name": "John Smith", "customer_email": "john@example.com",
			"priority": "medium", "status": "resolved",
		}},
		{ability.CloseTicket, ability.BaseParams(st)},
	}
	for _, tc := range cases {
		got, err := m.Params(tc.name, st)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestMapperOutputPayloadCarriesSnapshot(t *testing.T) {
	st := newState()
	params, err := ability.NewMapper(nil).Params(ability.OutputPayload, st)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	snap, ok := params["state"].(map[string]any)
	if !ok || snap["ticket_id"] != "TKT-1" {
		t.Fatalf("unexpected snapshot param: %v", params)
	}
}

func TestMapperOverride(t *testing.T) {
	m := ability.NewMapper(map[ability.Name]ability.ParamFunc{
		ability.StoreData: func(*state.State) (map[string]any, error) {
			return nil, errors.New("boom")
		},
	})
	if _, err := m.Params(ability.StoreData, newState()); err == nil {
		t.Fatal("expected override error")
	}
	if _, err := m.Params(ability.AcceptPayload, newState()); err != nil {
		t.Fatalf("default entries should survive overrides: %v", err)
	}
}

func TestDispatchRunsInOrderWithoutEarlyExit(t *testing.T) {
	client := &fakeClient{name: "common", reply: func(n ability.Name) ability.Result {
		if n == ability.ParseRequestText {
			return ability.Result{Success: false, Error: "provider rejected: status 500", ErrorKind: ability.ErrorKindProviderRejected}
		}
		return ability.Result{Success: true, Data: map[string]any{}}
	}}
	var observed int
	d := ability.NewDispatcher(nil)
	d.Observer = func(ability.Result, time.Duration) { observed++ }

	abilities := []ability.Name{ability.ParseRequestText, ability.ExtractEntities}
	results, err := d.Dispatch(context.Background(), client, abilities, newState())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reflect.DeepEqual(client.calls, abilities) {
		t.Fatalf("unexpected call order: %v", client.calls)
	}
	if len(results) != 2 || results[0].Success || !results[1].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Ability != ability.ParseRequestText || results[0].Provider != "common" {
		t.Fatalf("expected ability and provider filled in: %+v", results[0])
	}
	if observed != 2 {
		t.Fatalf("expected observer per call, got %d", observed)
	}
}

func TestDispatchStopsOnMappingError(t *testing.T) {
	client := &fakeClient{name: "common"}
	m := ability.NewMapper(map[ability.Name]ability.ParamFunc{
		ability.ExtractEntities: func(*state.State) (map[string]any, error) { return nil, errors.New("bad state") },
	})
	results, err := ability.NewDispatcher(m).Dispatch(context.Background(), client,
		[]ability.Name{ability.ParseRequestText, ability.ExtractEntities, ability.NormalizeFields}, newState())
	if err == nil {
		t.Fatal("expected mapping error")
	}
	if len(results) != 1 || len(client.calls) != 1 {
		t.Fatalf("expected one completed call, got %d results %d calls", len(results), len(client.calls))
	}
}

func TestDispatchRequiresClient(t *testing.T) {
	_, err := ability.NewDispatcher(nil).Dispatch(context.Background(), nil, []ability.Name{ability.AcceptPayload}, newState())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestMergeSkipsFailedAndUnknown(t *testing.T) {
	st := newState()
	before := *st
	err := ability.NewMerger(nil).Merge(st, []ability.Result{
		{Ability: "not_a_real_ability", Success: true, Data: map[string]any{"x": 1.0}},
		{Ability: ability.SolutionEvaluation, Success: false, Error: "transport failure: timeout"},
		{Ability: ability.ClarifyQuestion, Success: true, Data: map[string]any{"question": "which router?"}},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(*st, before) {
		t.Fatalf("state changed: %+v", st)
	}
}

func TestMergeWritesOwnedFields(t *testing.T) {
	st := newState()
	err := ability.NewMerger(nil).Merge(st, []ability.Result{
		{Ability: ability.ExtractEntities, Success: true, Data: map[string]any{"confidence": 0.9}},
		{Ability: ability.KnowledgeBaseSearch, Success: true, Data: map[string]any{"results": []any{"restart router"}}},
		{Ability: ability.SolutionEvaluation, Success: true, Data: map[string]any{"score": 0.85}},
		{Ability: ability.ResponseGeneration, Success: true, Data: map[string]any{}},
		{Ability: ability.ExtractAnswer, Success: true, Data: map[string]any{"answer": "yes"}},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if st.ExtractedEntities["confidence"] != 0.9 {
		t.Fatalf("unexpected entities: %v", st.ExtractedEntities)
	}
	if len(st.KnowledgeBaseResults) != 1 {
		t.Fatalf("unexpected kb results: %v", st.KnowledgeBaseResults)
	}
	if st.SolutionScore == nil || *st.SolutionScore != 0.85 {
		t.Fatalf("unexpected score: %v", st.SolutionScore)
	}
	if st.ResponseText != "" {
		t.Fatalf("missing key should yield zero value, got %q", st.ResponseText)
	}
	if st.CustomerAnswer != "yes" {
		t.Fatalf("unexpected answer: %q", st.CustomerAnswer)
	}
}

func TestMergeRejectsWrongType(t *testing.T) {
	err := ability.NewMerger(nil).Merge(newState(), []ability.Result{
		{Ability: ability.SolutionEvaluation, Success: true, Data: map[string]any{"score": "high"}},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	results := []ability.Result{
		{Ability: ability.ParseRequestText, Success: true, Data: map[string]any{"intent": "support"}},
		{Ability: ability.KnowledgeBaseSearch, Success: true, Data: map[string]any{"results": []any{"a", "b"}}},
		{Ability: ability.SolutionEvaluation, Success: true, Data: map[string]any{"score": 0.75}},
		{Ability: ability.OutputPayload, Success: true, Data: map[string]any{"status": "done"}},
	}
	m := ability.NewMerger(nil)

	once := newState()
	if err := m.Merge(once, results); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	twice := newState()
	for range 2 {
		if err := m.Merge(twice, results); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merging twice diverged:\n%+v\n%+v", once, twice)
	}
}
