// Package state defines the per-request workflow state that stages read and
// abilities write, together with the append-only audit records produced by
// each stage visit.
//
// A State is owned by exactly one workflow runner for its lifetime and is
// never shared between goroutines.
package state
