package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/state"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestRecorderExposesCounters(t *testing.T) {
	r := New()
	r.ObserveStage("INTAKE", state.StatusSuccess)
	r.ObserveStage("ASK", state.StatusSkipped)
	r.ObserveAbility(ability.Result{Ability: ability.AcceptPayload, Provider: "common", Success: true}, 20*time.Millisecond)
	r.ObserveAbility(ability.Result{Ability: ability.StoreData, Provider: "atlas", ErrorKind: ability.ErrorKindTransport}, time.Second)
	r.ObserveWorkflow(true)
	r.ObserveWorkflow(false)

	body := scrape(t, r)
	for _, want := range []string{
		`supportflow_stage_visits_total{stage="INTAKE",status="SUCCESS"} 1`,
		`supportflow_stage_visits_total{stage="ASK",status="SKIPPED"} 1`,
		`supportflow_ability_calls_total{ability="accept_payload",outcome="success",provider="common"} 1`,
		`supportflow_ability_calls_total{ability="store_data",outcome="transport",provider="atlas"} 1`,
		`supportflow_ability_call_duration_seconds_count{ability="store_data",provider="atlas"} 1`,
		`supportflow_workflows_total{outcome="success"} 1`,
		`supportflow_workflows_total{outcome="aborted"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveStage("INTAKE", state.StatusSuccess)
	r.ObserveAbility(ability.Result{}, 0)
	r.ObserveWorkflow(true)
}
