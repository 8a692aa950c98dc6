// Package logging builds the slog loggers used throughout lectern and
// provides the shared attribute helpers and field name conventions.
package logging
