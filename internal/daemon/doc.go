// Package daemon hosts the long-running supportflow HTTP server.
//
// The daemon enforces single-instance execution with a file lock in the data
// directory, then serves the API handler on the configured bind address until
// its context is cancelled or Stop is called.
package daemon
