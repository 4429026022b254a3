package workflow

import (
	"fmt"
	"strings"

	"supportflow/internal/config"
)

// FailurePolicy decides what happens when a stage fails before its successor
// is known and the current stage therefore does not change.
type FailurePolicy string

const (
	// PolicyRetry re-enters the failed stage until it has been visited
	// MaxStageAttempts times, then aborts.
	PolicyRetry FailurePolicy = config.FailurePolicyRetry
	// PolicyAbort stops the traversal on the first non-advancing failure.
	PolicyAbort FailurePolicy = config.FailurePolicyAbort
)

// ParseFailurePolicy converts a configuration value.
func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyRetry:
		return PolicyRetry, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", value)
	}
}
