package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/logging"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxSnippetLen      = 200
)

// Config captures the runtime settings for one provider.
type Config struct {
	Name         string
	BaseURL      string
	Capabilities []string
	Timeout      time.Duration
}

// Client executes abilities on a single capability provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The per-call timeout is
// still enforced through the request context.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for per-call debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a provider client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Capabilities = append([]string(nil), cfg.Capabilities...)
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the provider name used in results and audit records.
func (c *Client) Name() string { return c.cfg.Name }

// Capabilities returns the capability list advertised with every call.
func (c *Client) Capabilities() []string {
	return append([]string(nil), c.cfg.Capabilities...)
}

type executeRequest struct {
	Ability            string         `json:"ability"`
	Parameters         map[string]any `json:"parameters"`
	ServerCapabilities []string       `json:"server_capabilities"`
}

type executeResponse struct {
	Data json.RawMessage `json:"data"`
}

// Execute invokes one ability. It never returns a Go error: provider
// rejections and transport faults are reported on the result.
func (c *Client) Execute(ctx context.Context, name ability.Name, params map[string]any) ability.Result {
	result := ability.Result{Ability: name, Provider: c.cfg.Name}
	if params == nil {
		params = map[string]any{}
	}
	caps := c.cfg.Capabilities
	if caps == nil {
		caps = []string{}
	}
	body, err := json.Marshal(executeRequest{
		Ability:            string(name),
		Parameters:         params,
		ServerCapabilities: caps,
	})
	if err != nil {
		return c.reject(ctx, result, fmt.Sprintf("encode request: %v", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.BaseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return c.transport(ctx, result, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transport(ctx, result, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transport(ctx, result, fmt.Sprintf("read reply: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.reject(ctx, result, fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(raw)))
	}

	var decoded executeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return c.reject(ctx, result, fmt.Sprintf("invalid reply: %v", err))
	}
	var data map[string]any
	if len(decoded.Data) == 0 || json.Unmarshal(decoded.Data, &data) != nil || data == nil {
		return c.reject(ctx, result, "reply missing data object")
	}

	result.Success = true
	result.Data = data
	logging.WithContext(ctx, c.logger).Debug(
		"ability executed",
		logging.String(logging.FieldEventType, "ability_call"),
		logging.String(logging.FieldProvider, c.cfg.Name),
		logging.String(logging.FieldAbility, string(name)),
		logging.Int("status_code", resp.StatusCode),
	)
	return result
}

func (c *Client) reject(ctx context.Context, result ability.Result, detail string) ability.Result {
	result.Success = false
	result.ErrorKind = ability.ErrorKindProviderRejected
	result.Error = "provider rejected: " + detail
	c.logFailure(ctx, result)
	return result
}

func (c *Client) transport(ctx context.Context, result ability.Result, detail string) ability.Result {
	result.Success = false
	result.ErrorKind = ability.ErrorKindTransport
	result.Error = "transport failure: " + detail
	c.logFailure(ctx, result)
	return result
}

func (c *Client) logFailure(ctx context.Context, result ability.Result) {
	logging.WithContext(ctx, c.logger).Warn(
		"ability call failed",
		logging.String(logging.FieldEventType, "ability_call"),
		logging.String(logging.FieldProvider, result.Provider),
		logging.String(logging.FieldAbility, string(result.Ability)),
		logging.String("error_kind", string(result.ErrorKind)),
		logging.String(logging.FieldErrorHint, "check provider availability and logs"),
		logging.String(logging.FieldImpact, "ability result skipped during state merge"),
		logging.String("error_message", result.Error),
	)
}

func snippet(raw []byte) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if len(s) > maxSnippetLen {
		s = s[:maxSnippetLen] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
