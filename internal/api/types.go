package api

import (
	"encoding/json"

	"supportflow/internal/state"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SupportRequest is the body accepted by POST /api/support.
type SupportRequest struct {
	TicketID      string `json:"ticket_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Query         string `json:"query"`
	Priority      string `json:"priority,omitempty"`
}

// WorkflowResponse describes a persisted workflow.
type WorkflowResponse struct {
	WorkflowID   string              `json:"workflow_id"`
	TicketID     string              `json:"ticket_id"`
	CurrentStage string              `json:"current_stage"`
	IsComplete   bool                `json:"is_complete"`
	Success      bool                `json:"success"`
	Error        string              `json:"error,omitempty"`
	StageLogs    []state.StageRecord `json:"stage_logs"`
	Errors       []string            `json:"errors"`
	State        json.RawMessage     `json:"state,omitempty"`
	CreatedAt    string              `json:"created_at,omitempty"`
	UpdatedAt    string              `json:"updated_at,omitempty"`
	CompletedAt  string              `json:"completed_at,omitempty"`
}

// StageResponse lists one catalog stage.
type StageResponse struct {
	Name      string   `json:"name"`
	Mode      string   `json:"mode"`
	Abilities []string `json:"abilities"`
	Provider  string   `json:"provider"`
	Next      string   `json:"next,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Otherwise string   `json:"otherwise,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
	Entry     bool     `json:"entry"`
	Terminal  bool     `json:"terminal"`
}

// StagesResponse wraps the catalog listing.
type StagesResponse struct {
	Entry  string          `json:"entry"`
	Stages []StageResponse `json:"stages"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
