// Package stageexec runs a single stage visit: ability selection, dispatch,
// state merge, audit recording, and successor resolution. Failures are
// contained at the stage boundary and reported on the Outcome.
package stageexec
