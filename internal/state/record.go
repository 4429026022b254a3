package state

import "time"

// Status is the outcome of a single stage visit.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// ServerCall is the audit view of one ability invocation.
type ServerCall struct {
	Provider string `json:"provider"`
	Ability  string `json:"ability"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// StageRecord is appended once per stage visit.
type StageRecord struct {
	Stage             string       `json:"stage"`
	Timestamp         time.Time    `json:"timestamp"`
	AbilitiesExecuted []string     `json:"abilities_executed"`
	ServerCalls       []ServerCall `json:"server_calls"`
	Status            Status       `json:"status"`
	Attempt           int          `json:"attempt"`
	Error             string       `json:"error,omitempty"`
}
