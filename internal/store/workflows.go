package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"supportflow/internal/services"
	"supportflow/internal/state"
)

const workflowColumns = "workflow_id, ticket_id, current_stage, state_json, stage_logs_json, errors_json, is_complete, success, error_message, created_at, updated_at, completed_at"

const defaultListLimit = 50

// CreateWorkflow inserts a workflow record for ticketID positioned at entry.
func (s *Store) CreateWorkflow(ctx context.Context, ticketID, entry string) (*Workflow, error) {
	id := uuid.NewString()
	timestamp := formatTime(s.now())
	if _, err := s.exec(ctx,
		`INSERT INTO workflows (workflow_id, ticket_id, current_stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, ticketID, entry, timestamp, timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}
	return s.GetWorkflow(ctx, id)
}

// GetWorkflow fetches a workflow by identifier. It returns nil when absent.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+workflowColumns+` FROM workflows WHERE workflow_id = ?`, id)
	wf, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return wf, nil
}

// Checkpoint stores the current stage, audit log, and state snapshot.
func (s *Store) Checkpoint(ctx context.Context, workflowID string, st *state.State) error {
	stateJSON, logsJSON, errsJSON, err := encodeState(st)
	if err != nil {
		return err
	}
	n, err := s.exec(ctx,
		`UPDATE workflows
         SET current_stage = ?, state_json = ?, stage_logs_json = ?, errors_json = ?, updated_at = ?
         WHERE workflow_id = ?`,
		st.CurrentStage, stateJSON, logsJSON, errsJSON, formatTime(s.now()), workflowID,
	)
	if err != nil {
		return fmt.Errorf("checkpoint workflow: %w", err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "", "checkpoint workflow", "workflow "+workflowID, nil)
	}
	return nil
}

// CompleteWorkflow checkpoints st and marks the workflow finished.
func (s *Store) CompleteWorkflow(ctx context.Context, workflowID string, st *state.State, outcome Completion) error {
	stateJSON, logsJSON, errsJSON, err := encodeState(st)
	if err != nil {
		return err
	}
	now := s.now()
	timestamp := formatTime(now)
	n, err := s.exec(ctx,
		`UPDATE workflows
         SET current_stage = ?, state_json = ?, stage_logs_json = ?, errors_json = ?,
             is_complete = 1, success = ?, error_message = ?, updated_at = ?, completed_at = ?
         WHERE workflow_id = ?`,
		st.CurrentStage, stateJSON, logsJSON, errsJSON,
		boolToInt(outcome.Success), nullableString(outcome.Error), timestamp, nullableTime(&now),
		workflowID,
	)
	if err != nil {
		return fmt.Errorf("complete workflow: %w", err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "", "complete workflow", "workflow "+workflowID, nil)
	}
	return nil
}

// ListWorkflows returns the most recent workflows, newest first.
func (s *Store) ListWorkflows(ctx context.Context, limit int) ([]*Workflow, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+workflowColumns+` FROM workflows ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		out = append(out, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflows: %w", err)
	}
	return out, nil
}

func encodeState(st *state.State) (string, string, string, error) {
	if st == nil {
		return "", "", "", errors.New("state is nil")
	}
	stateJSON, err := json.Marshal(st)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal state: %w", err)
	}
	logs := st.StageLogs
	if logs == nil {
		logs = []state.StageRecord{}
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal stage logs: %w", err)
	}
	errs := st.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(stateJSON), string(logsJSON), string(errsJSON), nil
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*Workflow, error) {
	var (
		wf           Workflow
		stateJSON    sql.NullString
		logsJSON     string
		errsJSON     string
		isComplete   int64
		success      int64
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&wf.WorkflowID,
		&wf.TicketID,
		&wf.CurrentStage,
		&stateJSON,
		&logsJSON,
		&errsJSON,
		&isComplete,
		&success,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	if stateJSON.Valid && stateJSON.String != "" {
		wf.State = json.RawMessage(stateJSON.String)
	}
	if err := json.Unmarshal([]byte(logsJSON), &wf.StageLogs); err != nil {
		return nil, fmt.Errorf("decode stage logs: %w", err)
	}
	if err := json.Unmarshal([]byte(errsJSON), &wf.Errors); err != nil {
		return nil, fmt.Errorf("decode errors: %w", err)
	}
	wf.IsComplete = isComplete != 0
	wf.Success = success != 0
	wf.ErrorMessage = errorMessage.String
	if created, err := parseTime(createdRaw); err == nil {
		wf.CreatedAt = created
	}
	if updated, err := parseTime(updatedRaw); err == nil {
		wf.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTime(completedRaw.String); err == nil {
			wf.CompletedAt = &completed
		}
	}
	return &wf, nil
}
