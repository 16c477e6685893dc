// Package preflight provides readiness checks for the filesystem paths a
// command touches.
//
// Commands call RunAll before parsing anything so a missing input or an
// unwritable output directory fails fast with a clear message instead of
// after the alignment search has already run.
package preflight
