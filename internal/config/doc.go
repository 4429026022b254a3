// Package config loads, normalizes, and validates supportflow configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUPPORTFLOW_ATLAS_URL and NATS_URL. The Config type centralizes every knob
// the server and CLI need: data directories, capability provider endpoints,
// the stage failure policy, logging, events, and metrics.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, known provider names, and clear validation errors.
package config
