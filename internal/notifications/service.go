package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"supportflow/internal/config"
	"supportflow/internal/logging"
	"supportflow/internal/state"
)

const (
	subjectCompleted   = "completed"
	subjectStageFailed = "stage_failed"
	connectName        = "supportflow"
	flushTimeout       = 2 * time.Second
)

// WorkflowCompleted is published once per finished traversal.
type WorkflowCompleted struct {
	WorkflowID   string              `json:"workflow_id"`
	TicketID     string              `json:"ticket_id"`
	Success      bool                `json:"success"`
	CurrentStage string              `json:"current_stage"`
	FinalPayload map[string]any      `json:"final_payload,omitempty"`
	StageLogs    []state.StageRecord `json:"stage_logs"`
	Errors       []string            `json:"errors"`
	Error        string              `json:"error,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// StageFailed is published for every ERROR audit record.
type StageFailed struct {
	WorkflowID string    `json:"workflow_id"`
	TicketID   string    `json:"ticket_id"`
	Stage      string    `json:"stage"`
	Attempt    int       `json:"attempt"`
	Advanced   bool      `json:"advanced"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
}

// Service defines the notification surface exposed to the workflow runner.
type Service interface {
	NotifyWorkflowCompleted(ctx context.Context, event WorkflowCompleted) error
	NotifyStageFailed(ctx context.Context, event StageFailed) error
	Close() error
}

// Publisher is the subset of *nats.Conn the service needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NewService builds a NATS-backed service when cfg.Events.NatsURL is set.
// When no URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger) (Service, error) {
	if cfg == nil || strings.TrimSpace(cfg.Events.NatsURL) == "" {
		return NoopService{}, nil
	}
	logger = logging.NewComponentLogger(logger, "notifications")
	conn, err := nats.Connect(
		cfg.Events.NatsURL,
		nats.Name(connectName),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected",
					logging.Error(err),
					logging.String(logging.FieldEventType, "nats_disconnect"),
					logging.String(logging.FieldErrorHint, "events are buffered until the connection recovers"),
					logging.String(logging.FieldImpact, "workflow events may be delayed"),
				)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", logging.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.Events.NatsURL, err)
	}
	return NewPublisherService(conn, cfg.Events.Subject), nil
}

// NewPublisherService wraps an existing publisher.
func NewPublisherService(pub Publisher, subject string) Service {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = "supportflow.workflows"
	}
	return &natsService{pub: pub, subject: subject}
}

type natsService struct {
	pub     Publisher
	subject string
}

func (n *natsService) NotifyWorkflowCompleted(ctx context.Context, event WorkflowCompleted) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return n.send(ctx, subjectCompleted, event)
}

func (n *natsService) NotifyStageFailed(ctx context.Context, event StageFailed) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return n.send(ctx, subjectStageFailed, event)
}

func (n *natsService) send(ctx context.Context, suffix string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", suffix, err)
	}
	subject := n.subject + "." + suffix
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := n.pub.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	return nil
}

func (n *natsService) Close() error {
	if n.pub != nil {
		n.pub.Close()
	}
	return nil
}

// NoopService discards every event.
type NoopService struct{}

func (NoopService) NotifyWorkflowCompleted(context.Context, WorkflowCompleted) error { return nil }
func (NoopService) NotifyStageFailed(context.Context, StageFailed) error { return nil }
func (NoopService) Close() error { return nil }
