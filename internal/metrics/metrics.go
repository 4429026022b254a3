// Package metrics exposes Prometheus instrumentation for stage visits,
// ability calls, and workflow outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supportflow/internal/ability"
	"supportflow/internal/state"
)

const namespace = "supportflow"

// Recorder owns a private registry and the supportflow collectors.
type Recorder struct {
	registry      *prometheus.Registry
	stageVisits   *prometheus.CounterVec
	abilityCalls  *prometheus.CounterVec
	abilityTiming *prometheus.HistogramVec
	workflows     *prometheus.CounterVec
}

// New registers the supportflow collectors plus Go runtime and process
// collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_visits_total",
			Help:      "Stage visits by stage and audit status.",
		}, []string{"stage", "status"}),
		abilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ability_calls_total",
			Help:      "Ability calls by provider, ability, and outcome.",
		}, []string{"provider", "ability", "outcome"}),
		abilityTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ability_call_duration_seconds",
			Help:      "Wall time of ability calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider", "ability"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Finished workflow traversals by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		r.stageVisits,
		r.abilityCalls,
		r.abilityTiming,
		r.workflows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveStage counts one stage visit.
func (r *Recorder) ObserveStage(stage string, status state.Status) {
	if r == nil {
		return
	}
	r.stageVisits.WithLabelValues(stage, string(status)).Inc()
}

// ObserveAbility counts one ability call and records its duration. It matches
// ability.CallObserver.
func (r *Recorder) ObserveAbility(res ability.Result, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if !res.Success {
		outcome = string(res.ErrorKind)
		if outcome == "" {
			outcome = "failed"
		}
	}
	r.abilityCalls.WithLabelValues(res.Provider, string(res.Ability), outcome).Inc()
	r.abilityTiming.WithLabelValues(res.Provider, string(res.Ability)).Observe(elapsed.Seconds())
}

// ObserveWorkflow counts one finished traversal.
func (r *Recorder) ObserveWorkflow(success bool) {
	if r == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "aborted"
	}
	r.workflows.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
