package store

import (
	"encoding/json"
	"time"

	"supportflow/internal/state"
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketNew        TicketStatus = "new"
	TicketInProgress TicketStatus = "in_progress"
	TicketWaiting    TicketStatus = "waiting"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketNew, TicketInProgress, TicketWaiting, TicketResolved, TicketClosed:
		return true
	default:
		return false
	}
}

// Ticket is a persisted support request.
type Ticket struct {
	TicketID      string       `json:"ticket_id"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email"`
	Query         string       `json:"query"`
	Priority      string       `json:"priority"`
	Status        TicketStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Workflow is the persisted record of one traversal.
type Workflow struct {
	WorkflowID   string              `json:"workflow_id"`
	TicketID     string              `json:"ticket_id"`
	CurrentStage string              `json:"current_stage"`
	State        json.RawMessage     `json:"state,omitempty"`
	StageLogs    []state.StageRecord `json:"stage_logs"`
	Errors       []string            `json:"errors"`
	IsComplete   bool                `json:"is_complete"`
	Success      bool                `json:"success"`
	ErrorMessage string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// Completion is the final outcome recorded for a workflow.
type Completion struct {
	Success bool
	Error   string
}
