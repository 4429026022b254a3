package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"supportflow/internal/services"
	"supportflow/internal/state"
)

const ticketColumns = "ticket_id, customer_name, customer_email, query, priority, status, created_at, updated_at"

// CreateTicket inserts a ticket for in. A random identifier is assigned when
// in.TicketID is empty.
func (s *Store) CreateTicket(ctx context.Context, in state.Input, status TicketStatus) (*Ticket, error) {
	if status == "" {
		status = TicketNew
	}
	if !status.Valid() {
		return nil, services.Wrap(services.ErrValidation, "", "create ticket", fmt.Sprintf("unknown status %q", status), nil)
	}
	id := strings.TrimSpace(in.TicketID)
	if id == "" {
		id = uuid.NewString()
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = state.PriorityMedium
	}
	timestamp := formatTime(s.now())
	if _, err := s.exec(ctx,
		`INSERT INTO tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(in.CustomerName),
		strings.TrimSpace(in.CustomerEmail),
		strings.TrimSpace(in.Query),
		priority,
		status,
		timestamp,
		timestamp,
	); err != nil {
		if isConstraint(err) {
			return nil, services.Wrap(services.ErrValidation, "", "create ticket", fmt.Sprintf("ticket %s already exists", id), err)
		}
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	return s.GetTicket(ctx, id)
}

// GetTicket fetches a ticket by identifier. It returns nil when absent.
func (s *Store) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, id)
	ticket, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// UpdateTicketStatus changes a ticket's status.
func (s *Store) UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) error {
	if !status.Valid() {
		return services.Wrap(services.ErrValidation, "", "update ticket", fmt.Sprintf("unknown status %q", status), nil)
	}
	n, err := s.exec(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE ticket_id = ?`,
		status, formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "", "update ticket", "ticket "+id, nil)
	}
	return nil
}

func scanTicket(scanner interface{ Scan(dest ...any) error }) (*Ticket, error) {
	var (
		t          Ticket
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&t.TicketID,
		&t.CustomerName,
		&t.CustomerEmail,
		&t.Query,
		&t.Priority,
		&statusStr,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	t.Status = TicketStatus(statusStr)
	if created, err := parseTime(createdRaw); err == nil {
		t.CreatedAt = created
	}
	if updated, err := parseTime(updatedRaw); err == nil {
		t.UpdatedAt = updated
	}
	return &t, nil
}
