// Package logging assembles structured slog loggers and formatting helpers used
// by the srtmerge commands and pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with stages, subtitle lanes, and run correlation IDs. The package also
// provides a no-op logger for tests and library callers that pass no logger.
package logging
