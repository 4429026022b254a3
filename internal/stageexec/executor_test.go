package stageexec_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/config"
	"supportflow/internal/provider"
	"supportflow/internal/services"
	"supportflow/internal/stage"
	"supportflow/internal/stageexec"
	"supportflow/internal/state"
	"supportflow/internal/testsupport"
)

func newExecutor(t *testing.T, fake *testsupport.FakeProvider, mapper *ability.Mapper) *stageexec.Executor {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithProviderURL(fake.URL()))
	catalog := stage.DefaultCatalog()
	reg, err := provider.NewRegistry(cfg.Providers, catalog.Providers())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &stageexec.Executor{
		Catalog:    catalog,
		Clients:    reg,
		Dispatcher: ability.NewDispatcher(mapper),
		Merger:     ability.NewMerger(nil),
		Now:        func() time.Time { return fixed },
	}
}

func newState(at stage.ID) *state.State {
	return state.New(state.Input{
		TicketID:     "TKT-1",
		CustomerName: "John Smith",
		Priority:     "medium",
		Query:        "internet connection slow",
	}, string(at))
}

func TestVisitDeterministicStage(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Understand)

	out := exec.Visit(context.Background(), st)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if !out.Advanced || out.Next != stage.Prepare || st.CurrentStage != string(stage.Prepare) {
		t.Fatalf("expected advance to PREPARE, got %+v current=%s", out, st.CurrentStage)
	}
	if len(st.StageLogs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(st.StageLogs))
	}
	rec := st.StageLogs[0]
	if rec.Status != state.StatusSuccess || rec.Attempt != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !slices.Equal(rec.AbilitiesExecuted, []string{"parse_request_text", "extract_entities"}) {
		t.Fatalf("unexpected abilities: %v", rec.AbilitiesExecuted)
	}
	if len(rec.ServerCalls) != 2 || rec.ServerCalls[0].Provider != config.ProviderCommon || !rec.ServerCalls[1].Success {
		t.Fatalf("unexpected server calls: %+v", rec.ServerCalls)
	}
	if st.ExtractedEntities["confidence"] != 0.9 {
		t.Fatalf("expected entities merged, got %v", st.ExtractedEntities)
	}
	if st.ParsedRequest["intent"] != "technical_support" {
		t.Fatalf("expected parsed request merged, got %v", st.ParsedRequest)
	}
	if call := fake.Calls()[0]; call.Parameters["text"] != "internet connection slow" {
		t.Fatalf("unexpected parameters: %v", call.Parameters)
	}
}

func TestVisitDynamicStageSkipped(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Ask)
	st.ExtractedEntities = map[string]any{"confidence": 0.95}

	out := exec.Visit(context.Background(), st)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Record.Status != state.StatusSkipped || len(out.Record.AbilitiesExecuted) != 0 {
		t.Fatalf("expected SKIPPED record, got %+v", out.Record)
	}
	if st.CurrentStage != string(stage.Complete) {
		t.Fatalf("expected short-circuit to COMPLETE, got %s", st.CurrentStage)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("expected no provider calls, got %v", fake.Abilities())
	}
}

func TestVisitClarificationRuns(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Ask)
	st.ExtractedEntities = map[string]any{"confidence": 0.5}

	out := exec.Visit(context.Background(), st)
	if out.Err != nil || out.Next != stage.Wait {
		t.Fatalf("expected advance to WAIT, got %+v", out)
	}
	if !slices.Equal(fake.Abilities(), []string{"clarify_question"}) {
		t.Fatalf("unexpected calls: %v", fake.Abilities())
	}
}

func TestVisitAbilityFailureIsNotStageFailure(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	fake.Reply("parse_request_text", testsupport.ProviderReply{Status: 500, Body: `{"detail":"down"}`})
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Understand)

	out := exec.Visit(context.Background(), st)
	if out.Err != nil {
		t.Fatalf("ability failure should not fail the stage: %v", out.Err)
	}
	if len(st.Errors) != 0 {
		t.Fatalf("expected empty error log, got %v", st.Errors)
	}
	call := out.Record.ServerCalls[0]
	if call.Success || !strings.HasPrefix(call.Error, "provider rejected: status 500") {
		t.Fatalf("expected rejected call recorded, got %+v", call)
	}
	if st.ParsedRequest != nil {
		t.Fatal("failed result must not be merged")
	}
	if st.ExtractedEntities == nil {
		t.Fatal("later abilities should still run and merge")
	}
}

func TestVisitSelectionFailureDoesNotAdvance(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	fake.Reply("solution_evaluation", testsupport.ProviderReply{Data: map[string]any{"score": "high"}})
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Decide)

	out := exec.Visit(context.Background(), st)
	if !errors.Is(out.Err, services.ErrValidation) {
		t.Fatalf("expected validation error from a mistyped score, got %v", out.Err)
	}
	if out.Advanced || st.CurrentStage != string(stage.Decide) {
		t.Fatalf("expected stage unchanged, got %+v current=%s", out, st.CurrentStage)
	}
	if len(st.Errors) != 1 || !strings.HasPrefix(st.Errors[0], "Stage DECIDE: ") {
		t.Fatalf("unexpected error log: %v", st.Errors)
	}
	rec := st.StageLogs[0]
	if rec.Status != state.StatusError || rec.Error == "" {
		t.Fatalf("expected ERROR record, got %+v", rec)
	}
	if !slices.Equal(rec.AbilitiesExecuted, []string{"solution_evaluation"}) {
		t.Fatalf("expected dispatched scoring recorded, got %v", rec.AbilitiesExecuted)
	}

	again := exec.Visit(context.Background(), st)
	if again.Record.Attempt != 2 {
		t.Fatalf("expected attempt 2 on re-entry, got %d", again.Record.Attempt)
	}
}

func TestVisitDecideAdvancesWhenScoringFails(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	fake.Reply("solution_evaluation", testsupport.ProviderReply{Status: 500, Body: "scoring offline"})
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Decide)

	out := exec.Visit(context.Background(), st)
	if out.Err != nil || !out.Advanced || out.Next != stage.Complete {
		t.Fatalf("expected escalation route to COMPLETE, got %+v", out)
	}
	if st.SolutionScore != nil || !st.EscalationRequired {
		t.Fatalf("expected escalation without a score, got score=%v escalate=%v", st.SolutionScore, st.EscalationRequired)
	}
	rec := out.Record
	want := []string{"solution_evaluation", "escalation_decision", "update_payload"}
	if !slices.Equal(rec.AbilitiesExecuted, want) {
		t.Fatalf("abilities = %v, want %v", rec.AbilitiesExecuted, want)
	}
	if rec.ServerCalls[0].Success || !strings.HasPrefix(rec.ServerCalls[0].Error, "provider rejected: status 500") {
		t.Fatalf("expected rejected scoring call recorded, got %+v", rec.ServerCalls[0])
	}
	if len(st.Errors) != 0 {
		t.Fatalf("expected empty error log, got %v", st.Errors)
	}
}

func TestVisitDecideEscalates(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	fake.Reply("solution_evaluation", testsupport.ProviderReply{Data: map[string]any{"score": 0.75}})
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Decide)

	out := exec.Visit(context.Background(), st)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if !st.EscalationRequired || out.Next != stage.Complete {
		t.Fatalf("expected escalation to COMPLETE, got %+v", out)
	}
	want := []string{"solution_evaluation", "escalation_decision", "update_payload"}
	if !slices.Equal(out.Record.AbilitiesExecuted, want) || !slices.Equal(fake.Abilities(), want) {
		t.Fatalf("expected %v, got record=%v calls=%v", want, out.Record.AbilitiesExecuted, fake.Abilities())
	}
}

func TestVisitMappingFailureStillAdvancesDeterministic(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	mapper := ability.NewMapper(map[ability.Name]ability.ParamFunc{
		ability.EnrichRecords: func(*state.State) (map[string]any, error) { return nil, errors.New("no customer record") },
	})
	exec := newExecutor(t, fake, mapper)
	st := newState(stage.Prepare)

	out := exec.Visit(context.Background(), st)
	if out.Err == nil {
		t.Fatal("expected stage error")
	}
	if !out.Advanced || st.CurrentStage != string(stage.Ask) {
		t.Fatalf("deterministic stage should advance, got %+v", out)
	}
	if !slices.Equal(out.Record.AbilitiesExecuted, []string{"normalize_fields"}) {
		t.Fatalf("expected only dispatched abilities, got %v", out.Record.AbilitiesExecuted)
	}
}

func TestVisitTerminalStage(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	exec := newExecutor(t, fake, nil)
	st := newState(stage.Complete)

	out := exec.Visit(context.Background(), st)
	if out.Err != nil || !out.Terminal || !out.Advanced {
		t.Fatalf("expected terminal completion, got %+v", out)
	}
	if st.CurrentStage != string(stage.Complete) {
		t.Fatalf("terminal stage should stay current, got %s", st.CurrentStage)
	}
	if st.FinalPayload["status"] != "completed" {
		t.Fatalf("expected final payload merged, got %v", st.FinalPayload)
	}
	params := fake.Calls()[0].Parameters
	snapshot, ok := params["state"].(map[string]any)
	if !ok || snapshot["customer_name"] != "John Smith" {
		t.Fatalf("expected state snapshot parameter, got %v", params)
	}
}

func TestVisitUnknownProvider(t *testing.T) {
	fake := testsupport.NewFakeProvider(t)
	exec := newExecutor(t, fake, nil)
	exec.Clients = provider.NewStaticRegistry()
	st := newState(stage.Intake)

	out := exec.Visit(context.Background(), st)
	if out.Err == nil || out.Advanced {
		t.Fatalf("expected non-advancing failure, got %+v", out)
	}
}
