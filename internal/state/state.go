package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority levels accepted on intake.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Input carries the identity fields supplied with a support request.
type Input struct {
	TicketID      string `json:"ticket_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Priority      string `json:"priority,omitempty"`
	Query         string `json:"query"`
}

// State accumulates everything learned about one support request while it
// moves through the stage graph. Result fields are each written by exactly
// one ability; CurrentStage is written only when a stage advances.
type State struct {
	TicketID      string `json:"ticket_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Priority      string `json:"priority"`
	OriginalQuery string `json:"original_query"`

	ParsedRequest        map[string]any `json:"parsed_request,omitempty"`
	ExtractedEntities    map[string]any `json:"extracted_entities,omitempty"`
	NormalizedFields     map[string]any `json:"normalized_fields,omitempty"`
	EnrichedData         map[string]any `json:"enriched_data,omitempty"`
	ClarificationNeeded  bool           `json:"clarification_needed"`
	CustomerAnswer       string         `json:"customer_answer,omitempty"`
	KnowledgeBaseResults []any          `json:"knowledge_base_results,omitempty"`
	SolutionScore        *float64       `json:"solution_score,omitempty"`
	EscalationRequired   bool           `json:"escalation_required"`
	ResponseText         string         `json:"response_text,omitempty"`
	APIResults           map[string]any `json:"api_results,omitempty"`
	FinalPayload         map[string]any `json:"final_payload,omitempty"`

	CurrentStage string        `json:"current_stage"`
	StageLogs    []StageRecord `json:"stage_logs"`
	Errors       []string      `json:"errors"`
}

// New builds a fresh state from intake input positioned at the entry stage.
// Priority is lowercased and defaults to medium.
func New(in Input, entry string) *State {
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = PriorityMedium
	}
	return &State{
		TicketID:      strings.TrimSpace(in.TicketID),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		Priority:      priority,
		OriginalQuery: strings.TrimSpace(in.Query),
		CurrentStage:  entry,
		StageLogs:     []StageRecord{},
		Errors:        []string{},
	}
}

// ValidPriority reports whether p is one of the accepted priority levels.
func ValidPriority(p string) bool {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// HighPriority reports whether the request priority is high or critical.
func (s *State) HighPriority() bool {
	return s.Priority == PriorityHigh || s.Priority == PriorityCritical
}

// FallbackTicketID derives a time-based ticket identifier for requests that
// arrive without one.
func FallbackTicketID(now time.Time) string {
	return "TKT-" + now.UTC().Format("20060102-150405")
}

// AppendError records a stage-level failure in the error log.
func (s *State) AppendError(stage string, err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, fmt.Sprintf("Stage %s: %s", stage, err.Error()))
}

// AppendRecord adds an audit record for one stage visit.
func (s *State) AppendRecord(rec StageRecord) {
	s.StageLogs = append(s.StageLogs, rec)
}

// Visits counts the audit records already written for stage.
func (s *State) Visits(stage string) int {
	n := 0
	for _, rec := range s.StageLogs {
		if rec.Stage == stage {
			n++
		}
	}
	return n
}

// Snapshot returns the state as a generic JSON object, suitable for sending
// across the provider wire or persisting.
func (s *State) Snapshot() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state snapshot: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode state snapshot: %w", err)
	}
	return out, nil
}
