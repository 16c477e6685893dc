// Package main hosts the srtmerge CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// each invocation to internal/pipeline: merge renders two SRT tracks into a
// top/bottom ASS script, align previews the automatic offset search, shift
// retimes a single SRT file, and inspect summarises encodings and timing.
//
// Keep this package lean: behaviour belongs in the internal packages, and the
// commands here only translate flags into pipeline options and print reports.
package main
