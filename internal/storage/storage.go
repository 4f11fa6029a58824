// Package storage keeps the ingestion audit log and reports disk usage of
// stored uploads. The vector index itself is never persisted.
package storage

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// IngestionLog records every ingestion attempt, successful or not.
type IngestionLog interface {
	RecordIngestion(ctx context.Context, rec *models.IngestionRecord) error
	// ListIngestions returns records newest first.
	ListIngestions(ctx context.Context, offset, limit int) ([]*models.IngestionRecord, error)
	CountIngestions(ctx context.Context) (map[models.IngestionStatus]int64, error)
	Close() error
}
