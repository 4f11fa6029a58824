package models

import "time"

// IngestionStatus is the outcome of one ingestion attempt.
type IngestionStatus string

const (
	// IngestionIndexed means the document was committed to the index.
	IngestionIndexed IngestionStatus = "indexed"
	// IngestionRejected means a validation or capacity check turned the document away.
	IngestionRejected IngestionStatus = "rejected"
	// IngestionFailed means extraction, embedding or storage failed.
	IngestionFailed IngestionStatus = "failed"
)

// IngestionRecord is one row of the ingestion audit log.
type IngestionRecord struct {
	ID         string          `json:"id" db:"id"`
	Filename   string          `json:"filename" db:"filename"`
	StoredPath string          `json:"stored_path,omitempty" db:"stored_path"`
	SizeBytes  int64           `json:"size_bytes" db:"size_bytes"`
	Status     IngestionStatus `json:"status" db:"status"`
	Reason     string          `json:"reason,omitempty" db:"reason"`
	Segments   int             `json:"segments" db:"segments"`
	ElapsedMS  int64           `json:"elapsed_ms" db:"elapsed_ms"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
