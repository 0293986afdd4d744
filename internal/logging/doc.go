// Package logging builds the slog loggers used across pykit.
//
// Console output goes through a compact pretty handler (colored when the
// terminal supports it); a JSON handler mirrors every record into the
// configured log file. The two sinks are combined with slog-multi's Fanout.
package logging
