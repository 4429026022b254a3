// Package stage defines the support pipeline's stage graph.
//
// A Catalog is an ordered set of Definitions with exactly one entry stage.
// Deterministic stages always run their declared abilities; dynamic stages
// consult a Selector bound to their identity, which may dispatch scoring calls
// of its own before choosing the remaining abilities and setting the routing
// flags that conditional edges read.
package stage
