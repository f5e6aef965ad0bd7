// Package random provides the process-wide random source used by every
// probabilistic branch of the simulation (breakdown rolls, charge needs,
// weighted state selection, station picks).
//
// The source is always injected. Tests build one with NewSeeded so that
// property checks are deterministic.
package random
