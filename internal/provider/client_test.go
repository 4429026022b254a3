package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supportflow/internal/ability"
	"supportflow/internal/config"
	"supportflow/internal/services"
)

func TestClientExecuteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/mcp/execute" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Ability != "solution_evaluation" {
			t.Fatalf("unexpected ability %q", req.Ability)
		}
		if req.Parameters["query"] != "slow internet" {
			t.Fatalf("unexpected parameters %v", req.Parameters)
		}
		if strings.Join(req.ServerCapabilities, ",") != "text_processing,calculations" {
			t.Fatalf("unexpected capabilities %v", req.ServerCapabilities)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"score": 0.82}})
	}))
	defer server.Close()

	client := NewClient(Config{
		Name:         "common",
		BaseURL:      server.URL + "/mcp/",
		Capabilities: []string{"text_processing", "calculations"},
	})
	res := client.Execute(context.Background(), ability.SolutionEvaluation, map[string]any{"query": "slow internet"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Provider != "common" || res.Ability != ability.SolutionEvaluation {
		t.Fatalf("unexpected identity: %+v", res)
	}
	if res.Data["score"] != 0.82 {
		t.Fatalf("unexpected data: %v", res.Data)
	}
	if res.Error != "" || res.ErrorKind != "" {
		t.Fatalf("expected no error fields on success: %+v", res)
	}
}

func TestClientExecuteRejections(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		contain string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`, "status 500"},
		{"bad json", http.StatusOK, `not json`, "invalid reply"},
		{"missing data", http.StatusOK, `{"result":{}}`, "missing data object"},
		{"data not object", http.StatusOK, `{"data":[1,2]}`, "missing data object"},
		{"null data", http.StatusOK, `{"data":null}`, "missing data object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			res := NewClient(Config{Name: "atlas", BaseURL: server.URL}).Execute(context.Background(), ability.UpdateTicket, nil)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.ErrorKind != ability.ErrorKindProviderRejected {
				t.Fatalf("expected provider_rejected, got %q", res.ErrorKind)
			}
			if !strings.HasPrefix(res.Error, "provider rejected: ") || !strings.Contains(res.Error, tc.contain) {
				t.Fatalf("unexpected error text %q", res.Error)
			}
			if res.Data != nil {
				t.Fatalf("expected no data on failure, got %v", res.Data)
			}
		})
	}
}

func TestClientExecuteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{Name: "atlas", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	res := client.Execute(context.Background(), ability.KnowledgeBaseSearch, nil)
	if res.Success || res.ErrorKind != ability.ErrorKindTransport {
		t.Fatalf("expected transport failure, got %+v", res)
	}
	if !strings.HasPrefix(res.Error, "transport failure: ") {
		t.Fatalf("unexpected error text %q", res.Error)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestClientExecuteUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	res := NewClient(Config{Name: "atlas", BaseURL: url}).Execute(context.Background(), ability.StoreData, nil)
	if res.Success || res.ErrorKind != ability.ErrorKindTransport {
		t.Fatalf("expected transport failure, got %+v", res)
	}
}

func TestNewRegistryRejectsUnknownProvider(t *testing.T) {
	providers := config.Default().Providers
	if _, err := NewRegistry(providers, []string{"common", "billing"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	} else if !strings.Contains(err.Error(), "billing") {
		t.Fatalf("expected missing name in error, got %v", err)
	}

	reg, err := NewRegistry(providers, []string{"atlas", "common"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	client, ok := reg.Client("atlas")
	if !ok || client.Name() != "atlas" {
		t.Fatalf("expected atlas client, got %v", client)
	}
	if got := strings.Join(reg.Names(), ","); got != "atlas,common" {
		t.Fatalf("unexpected names %q", got)
	}
}
