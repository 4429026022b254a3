// Package services defines shared utilities consumed by the stage executor,
// the capability provider clients, and the HTTP adapter.
//
// Key responsibilities:
//   - Context helpers that stamp ticket IDs, workflow IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so configuration faults,
//     provider rejections, and transport failures stay distinguishable after
//     wrapping.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
