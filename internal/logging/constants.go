package logging

// Standardized field names for structured logging.
const (
	FieldFile          = "file_path"
	FieldTransactionID = "transaction_id"
	FieldGroupID       = "group_id"
	FieldLabel         = "label"
	FieldConfidence    = "confidence"
	FieldMatchType     = "match_type"
	FieldOperation     = "operation"
	FieldStatus        = "status"
	FieldFormat        = "format"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldBuckets       = "buckets"
	FieldWorkers       = "workers"
	FieldJobID         = "job_id"
	FieldClient        = "client"
)
