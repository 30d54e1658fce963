package catalog

import "dreampipe/internal/models"

// ModelRecord describes one completed generation in the models.json
// catalog. Records are append-only: once written they are never mutated
// or deleted by the pipeline.
type ModelRecord struct {
	Name        string               `json:"name"`
	URL         string               `json:"url"`
	Description string               `json:"description"`
	Analysis    models.DreamAnalysis `json:"analysis"`
	Timestamp   string               `json:"timestamp"` // RFC 3339
	TaskID      string               `json:"task_id"`
}

// ModelCollection is the on-disk document: an ordered list of records,
// loaded fully, appended to, and rewritten in full on each update
type ModelCollection struct {
	Models []ModelRecord `json:"models"`
}
