// Package logging assembles structured slog loggers and formatting helpers used
// across cadence.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that tag log lines with run, posting and
// destination identifiers. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
