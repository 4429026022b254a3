package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"supportflow/internal/config"
	"supportflow/internal/state"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	flushes  int
	fail     error
	closed   bool
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	if r.fail != nil {
		return r.fail
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func (r *recordingPublisher) FlushWithContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("flush requires a deadline")
	}
	r.flushes++
	return nil
}

func (r *recordingPublisher) Close() { r.closed = true }

func TestNewServiceWithoutURLIsNoop(t *testing.T) {
	cfg := config.Default()
	svc, err := NewService(&cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, ok := svc.(NoopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyWorkflowCompleted(context.Background(), WorkflowCompleted{}); err != nil {
		t.Fatalf("noop returned error: %v", err)
	}
}

func TestPublishesCompletedEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewPublisherService(pub, ".support.events.")

	err := svc.NotifyWorkflowCompleted(context.Background(), WorkflowCompleted{
		WorkflowID: "wf-1",
		TicketID:   "TKT-1",
		Success:    true,
		StageLogs:  []state.StageRecord{{Stage: "INTAKE", Status: state.StatusSuccess}},
	})
	if err != nil {
		t.Fatalf("NotifyWorkflowCompleted: %v", err)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != "support.events.completed" {
		t.Fatalf("unexpected subjects: %v", pub.subjects)
	}
	if pub.flushes != 1 {
		t.Fatalf("expected flush, got %d", pub.flushes)
	}
	var decoded map[string]any
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["workflow_id"] != "wf-1" || decoded["success"] != true {
		t.Fatalf("unexpected payload: %v", decoded)
	}
	if decoded["timestamp"] == "" {
		t.Fatal("expected timestamp filled in")
	}

	if err := svc.Close(); err != nil || !pub.closed {
		t.Fatalf("expected publisher closed, err=%v", err)
	}
}

func TestPublishesStageFailure(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewPublisherService(pub, "")
	if err := svc.NotifyStageFailed(context.Background(), StageFailed{Stage: "DECIDE", Error: "no score"}); err != nil {
		t.Fatalf("NotifyStageFailed: %v", err)
	}
	if pub.subjects[0] != "supportflow.workflows.stage_failed" {
		t.Fatalf("unexpected subject %q", pub.subjects[0])
	}
}

func TestPublishErrorSurfaces(t *testing.T) {
	pub := &recordingPublisher{fail: errors.New("connection closed")}
	svc := NewPublisherService(pub, "x")
	if err := svc.NotifyStageFailed(context.Background(), StageFailed{}); err == nil {
		t.Fatal("expected publish error")
	}
}
