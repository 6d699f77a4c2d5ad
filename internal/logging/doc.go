// Package logging builds the slog loggers used across gazette and holds
// the shared attribute helpers and standardized field keys. Two output
// formats are supported: a compact console format and JSON.
package logging
