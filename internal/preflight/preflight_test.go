package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"supportflow/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	result := CheckProvider(context.Background(), "common", config.Provider{URL: srv.URL + "/"})
	if !result.Passed || result.Name != "Provider common" {
		t.Fatalf("expected reachable provider, got %+v", result)
	}
}

func TestCheckProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckProvider(context.Background(), "atlas", config.Provider{URL: srv.URL})
	if result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected server error, got %+v", result)
	}
}

func TestCheckProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := CheckProvider(context.Background(), "atlas", config.Provider{URL: url})
	if result.Passed {
		t.Fatalf("expected failure for closed server, got %+v", result)
	}
	if missing := CheckProvider(context.Background(), "atlas", config.Provider{}); missing.Passed || missing.Detail != "missing url" {
		t.Fatalf("expected missing url, got %+v", missing)
	}
}

func TestRunAllSkipsEventsWithoutURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.Events.NatsURL = ""
	for name, p := range cfg.Providers {
		p.URL = srv.URL
		cfg.Providers[name] = p
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2+len(cfg.Providers) {
		t.Fatalf("unexpected result count %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only the log directory to fail, got %+v", failed)
	}
}
