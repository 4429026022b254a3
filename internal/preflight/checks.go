package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sys/unix"

	"supportflow/internal/config"
)

const checkTimeout = 5 * time.Second

// CheckProvider verifies that the provider's base URL answers HTTP. Any status
// counts as reachable: providers only serve POST /execute, so a GET on the
// base URL commonly returns 404 or 405.
func CheckProvider(ctx context.Context, name string, p config.Provider) Result {
	label := "Provider " + name
	base := strings.TrimRight(strings.TrimSpace(p.URL), "/")
	if base == "" {
		return Result{Name: label, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: %v)", base, err)}
	}
	client := &http.Client{Timeout: checkTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: label, Detail: fmt.Sprintf("%s (%s)", base, summarizeNetError(err))}
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: label, Detail: fmt.Sprintf("%s (server error %d)", base, resp.StatusCode)}
	}
	return Result{Name: label, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
}

// CheckEvents verifies that the NATS server accepts a connection.
func CheckEvents(url string) Result {
	const name = "Event broker"
	conn, err := nats.Connect(url,
		nats.Name("supportflow-preflight"),
		nats.Timeout(checkTimeout),
		nats.NoReconnect(),
	)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%v)", url, err)}
	}
	defer conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (connected)", conn.ConnectedUrl())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "connection refused or host unreachable"
	}
	return err.Error()
}
