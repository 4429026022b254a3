package testsupport

import (
	"context"
	"testing"

	"supportflow/internal/config"
	"supportflow/internal/state"
	"supportflow/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// NewTicket creates an in-progress ticket for tests using the provided store.
func NewTicket(t testing.TB, s *store.Store, name, query string) *store.Ticket {
	t.Helper()

	ticket, err := s.CreateTicket(context.Background(), state.Input{
		CustomerName:  name,
		CustomerEmail: "customer@example.com",
		Query:         query,
	}, store.TicketInProgress)
	if err != nil {
		t.Fatalf("store.CreateTicket: %v", err)
	}
	return ticket
}
