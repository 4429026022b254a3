// Package api exposes support workflows over HTTP.
//
// Service validates incoming requests, records tickets and workflow rows in
// the store, and drives the workflow runner. Handler maps Service onto the
// JSON routes served by the daemon:
//
//	POST /api/support         run a support request
//	GET  /api/workflows/{id}  persisted workflow status
//	GET  /api/demo            run the built-in sample request
//	GET  /api/stages          stage catalog listing
//	GET  /metrics             Prometheus exposition, when enabled
//
// DTOs use snake_case JSON tags to match the workflow result. Timestamps are
// RFC3339 with milliseconds. The raw workflow state is passed through as
// json.RawMessage to avoid double-encoding.
package api
