package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"supportflow/internal/logging"
	"supportflow/internal/services"
	"supportflow/internal/stage"
	"supportflow/internal/state"
	"supportflow/internal/store"
	"supportflow/internal/workflow"
)

// Store is the persistence surface Service needs.
type Store interface {
	CreateTicket(ctx context.Context, in state.Input, status store.TicketStatus) (*store.Ticket, error)
	UpdateTicketStatus(ctx context.Context, id string, status store.TicketStatus) error
	CreateWorkflow(ctx context.Context, ticketID, entry string) (*store.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*store.Workflow, error)
}

// Runner executes workflows.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) workflow.Result
	Catalog() *stage.Catalog
}

// DemoRequest is the sample request served by /api/demo.
var DemoRequest = SupportRequest{
	CustomerName:  "John Smith",
	CustomerEmail: "john.smith@example.com",
	Query:         "My internet connection keeps dropping every few minutes since yesterday. I already restarted the router.",
	Priority:      state.PriorityMedium,
}

// Service wires requests to the runner and the store.
type Service struct {
	runner Runner
	store  Store
	logger *slog.Logger
}

// NewService constructs a Service. A nil store runs workflows without
// persisting tickets.
func NewService(runner Runner, st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{runner: runner, store: st, logger: logger}
}

// Validate normalizes req in place and reports the first invalid field.
func Validate(req *SupportRequest) error {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.Query = strings.TrimSpace(req.Query)
	req.Priority = strings.ToLower(strings.TrimSpace(req.Priority))
	switch {
	case req.CustomerName == "":
		return invalid("customer_name is required")
	case req.CustomerEmail == "":
		return invalid("customer_email is required")
	case req.Query == "":
		return invalid("query is required")
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return invalid(fmt.Sprintf("customer_email %q is not a valid address", req.CustomerEmail))
	}
	if req.Priority == "" {
		req.Priority = state.PriorityMedium
	}
	if !state.ValidPriority(req.Priority) {
		return invalid(fmt.Sprintf("priority %q must be one of low, medium, high, critical", req.Priority))
	}
	return nil
}

func invalid(msg string) error {
	return services.Wrap(services.ErrValidation, "", "validate request", msg, nil)
}

// Submit validates req, records a ticket and workflow, and runs the workflow.
// A validation failure is returned as an error wrapping services.ErrValidation;
// a workflow that aborts is reported through the Result, not the error.
func (s *Service) Submit(ctx context.Context, req SupportRequest) (workflow.Result, error) {
	if err := Validate(&req); err != nil {
		return workflow.Result{}, err
	}
	in := state.Input{
		TicketID:      strings.TrimSpace(req.TicketID),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Priority:      req.Priority,
		Query:         req.Query,
	}
	if s.store == nil {
		return s.runner.Run(ctx, workflow.Request{Input: in}), nil
	}

	ticket, err := s.store.CreateTicket(ctx, in, store.TicketInProgress)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("create ticket: %w", err)
	}
	in.TicketID = ticket.TicketID
	record, err := s.store.CreateWorkflow(ctx, ticket.TicketID, string(s.runner.Catalog().Entry()))
	if err != nil {
		s.setTicketStatus(ctx, ticket.TicketID, store.TicketNew)
		return workflow.Result{}, fmt.Errorf("create workflow: %w", err)
	}

	result := s.runner.Run(ctx, workflow.Request{Input: in, WorkflowID: record.WorkflowID})

	status := store.TicketNew
	if result.Success {
		status = store.TicketResolved
	}
	s.setTicketStatus(ctx, ticket.TicketID, status)
	return result, nil
}

// setTicketStatus records the ticket outcome even when ctx was cancelled.
// Failures are logged; the workflow result stands either way.
func (s *Service) setTicketStatus(ctx context.Context, ticketID string, status store.TicketStatus) {
	if err := s.store.UpdateTicketStatus(context.WithoutCancel(ctx), ticketID, status); err != nil {
		logging.WarnWithContext(s.logger, "ticket status update failed", "ticket_status_failed",
			logging.Error(err),
			logging.String(logging.FieldTicketID, ticketID),
			logging.String("status", string(status)),
			logging.String(logging.FieldErrorHint, "check database permissions and disk space"),
			logging.String(logging.FieldImpact, "ticket status does not reflect the workflow outcome"),
		)
	}
}

// Demo runs DemoRequest.
func (s *Service) Demo(ctx context.Context) (workflow.Result, error) {
	return s.Submit(ctx, DemoRequest)
}

// Workflow returns the persisted workflow with id.
func (s *Service) Workflow(ctx context.Context, id string) (WorkflowResponse, error) {
	id = strings.TrimSpace(id)
	if s.store == nil || id == "" {
		return WorkflowResponse{}, services.Wrap(services.ErrNotFound, "", "get workflow", "workflow "+id+" not found", nil)
	}
	wf, err := s.store.GetWorkflow(ctx, id)
	if err != nil {
		return WorkflowResponse{}, err
	}
	if wf == nil {
		return WorkflowResponse{}, services.Wrap(services.ErrNotFound, "", "get workflow", "workflow "+id+" not found", nil)
	}
	return FromWorkflow(wf), nil
}

// Stages lists the catalog the runner traverses.
func (s *Service) Stages() StagesResponse {
	return FromCatalog(s.runner.Catalog())
}
