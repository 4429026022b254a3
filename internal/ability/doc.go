// Package ability names the remote operations a stage can invoke and owns the
// three pieces that sit around a provider call: the parameter mapper that
// builds each call's arguments from workflow state, the dispatcher that runs a
// stage's abilities in order, and the merger that folds successful results
// back into state.
package ability
