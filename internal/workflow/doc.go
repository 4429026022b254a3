// Package workflow drives one support request through the stage catalog.
//
// A Runner owns the request's state for the whole traversal: it asks the stage
// executor to visit the current stage, checkpoints progress, applies the
// failure policy when a stage cannot resolve its successor, and reports a
// single Result once a terminal stage completes or the traversal is aborted.
//
// Independent requests may run concurrently on one Runner; they share only the
// catalog, the provider clients, and the concurrency-safe collaborators
// (store, notifier, metrics).
package workflow
