package logger

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity
	FieldRunID    = "run_id"
	FieldJob      = "job"
	FieldItem     = "item"
	FieldSchedule = "schedule"

	// Components
	FieldComponent = "component"
	FieldTable     = "table"

	// Operations
	FieldOperation = "operation"
	FieldStatement = "statement"
	FieldDryRun    = "dry_run"
	FieldScope     = "scope"

	// Errors
	FieldError = "error"
	FieldHint  = "hint"

	// Counts
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Files and paths
	FieldFile = "file"
	FieldPath = "path"

	// Connection
	FieldHost     = "host"
	FieldPort     = "port"
	FieldDatabase = "database"
	FieldVersion  = "version"
)
