// Package notifications publishes workflow outcomes to NATS.
//
// NewService returns a NATS-backed Service when an events URL is configured
// and a noop implementation otherwise, so callers never need to nil-check.
// Completed traversals publish to <subject>.completed and stage failures to
// <subject>.stage_failed, each as a JSON document.
package notifications
