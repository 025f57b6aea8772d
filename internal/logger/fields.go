package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldSyncID is the sync run ID
	FieldSyncID = "sync_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSource is the extraction source identifier
	FieldSource = "source"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldBatch is the batch ordinal within a sync run
	FieldBatch = "batch"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
