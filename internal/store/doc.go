// Package store persists support tickets and workflow records in SQLite.
//
// Open prepares the database under the configured data directory, creates the
// schema on first use, and refuses databases written by a different schema
// version. Workflow records are checkpointed after every stage visit so that
// status queries observe progress while a traversal is still running.
package store
