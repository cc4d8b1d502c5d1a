// Package logging builds slog loggers for the CLI and for per-run log files.
//
// Console output uses a compact human format: a header with timestamp, level,
// component and subject, followed by a short list of highlighted fields.
// The JSON handler emits ts/level/msg keys for machine consumption. A run
// logger tees the console handler with a file handler that stamps every
// record with the run identifier.
//
// Helpers in this package standardize field names (event_type, stage,
// segment, run_id, error_hint) so stage logs stay greppable across runs.
package logging
