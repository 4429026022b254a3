package state_test

import (
	"errors"
	"testing"
	"time"

	"supportflow/internal/state"
)

func TestNewNormalizesInput(t *testing.T) {
	st := state.New(state.Input{
		CustomerName: "  John Smith ",
		Priority:     "HIGH",
		Query:        "internet connection slow",
	}, "INTAKE")

	if st.CustomerName != "John Smith" {
		t.Fatalf("unexpected name %q", st.CustomerName)
	}
	if st.Priority != state.PriorityHigh || !st.HighPriority() {
		t.Fatalf("expected high priority, got %q", st.Priority)
	}
	if st.CurrentStage != "INTAKE" {
		t.Fatalf("expected entry stage, got %q", st.CurrentStage)
	}
	if st.StageLogs == nil || st.Errors == nil {
		t.Fatal("expected non-nil logs")
	}

	if def := state.New(state.Input{}, "INTAKE"); def.Priority != state.PriorityMedium {
		t.Fatalf("expected medium default, got %q", def.Priority)
	}
}

func TestAppendErrorFormatsStageName(t *testing.T) {
	st := state.New(state.Input{}, "INTAKE")
	st.AppendError("DECIDE", errors.New("no score"))
	st.AppendError("DECIDE", nil)
	if len(st.Errors) != 1 || st.Errors[0] != "Stage DECIDE: no score" {
		t.Fatalf("unexpected errors: %v", st.Errors)
	}
}

func TestVisitsCountsRecords(t *testing.T) {
	st := state.New(state.Input{}, "INTAKE")
	st.AppendRecord(state.StageRecord{Stage: "INTAKE"})
	st.AppendRecord(state.StageRecord{Stage: "ASK"})
	st.AppendRecord(state.StageRecord{Stage: "ASK"})
	if st.Visits("ASK") != 2 || st.Visits("DO") != 0 {
		t.Fatalf("unexpected visit counts")
	}
}

func TestSnapshotUsesWireNames(t *testing.T) {
	score := 0.9
	st := state.New(state.Input{TicketID: "TKT-1", Query: "help"}, "INTAKE")
	st.SolutionScore = &score
	snap, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap["ticket_id"] != "TKT-1" || snap["original_query"] != "help" {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if snap["solution_score"] != 0.9 {
		t.Fatalf("expected solution_score 0.9, got %v", snap["solution_score"])
	}
	if _, ok := snap["parsed_request"]; ok {
		t.Fatal("expected empty result fields omitted")
	}
}

func TestFallbackTicketID(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if got := state.FallbackTicketID(at); got != "TKT-20240309-140507" {
		t.Fatalf("unexpected fallback id %q", got)
	}
}
