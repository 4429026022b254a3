// Package preflight provides readiness checks for the filesystem paths and
// external services supportflow depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs a warning per failed check;
//     a provider that is down degrades individual workflows but does not stop
//     the server.
//   - The CLI "supportflow config validate --check" prints every result.
//
// Event broker checks are skipped when no NATS URL is configured.
package preflight
