// Package services defines shared utilities consumed by the merge pipeline
// stages and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, subtitle lanes, and run
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation vs configuration vs I/O) for the command layer.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
