package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSegment is the standardized structured logging key for timeline segment names.
	FieldSegment = "segment"
	// FieldEventType classifies a record (stage_start, stage_complete, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries operator guidance attached to failures.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the failure class derived from error markers.
	FieldErrorKind = "error_kind"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
