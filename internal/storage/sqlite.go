package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteIngestionLog implements IngestionLog using SQLite.
type SQLiteIngestionLog struct {
	db *sql.DB
}

// NewSQLiteIngestionLog opens or creates the database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewSQLiteIngestionLog(dbPath string) (*SQLiteIngestionLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteIngestionLog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingestions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		stored_path TEXT,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		reason TEXT,
		segments INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ingestions_created_at ON ingestions(created_at);
	CREATE INDEX IF NOT EXISTS idx_ingestions_status ON ingestions(status);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordIngestion inserts rec, filling in ID and CreatedAt when empty.
func (s *SQLiteIngestionLog) RecordIngestion(ctx context.Context, rec *models.IngestionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestions (id, filename, stored_path, size_bytes, status, reason, segments, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.StoredPath, rec.SizeBytes, string(rec.Status),
		rec.Reason, rec.Segments, rec.ElapsedMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingestion: %w", err)
	}
	return nil
}

// ListIngestions returns up to limit records, newest first, skipping offset.
func (s *SQLiteIngestionLog) ListIngestions(ctx context.Context, offset, limit int) ([]*models.IngestionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, stored_path, size_bytes, status, reason, segments, elapsed_ms, created_at
		FROM ingestions ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestions: %w", err)
	}
	defer rows.Close()

	var out []*models.IngestionRecord
	for rows.Next() {
		var (
			rec        models.IngestionRecord
			status     string
			storedPath sql.NullString
			reason     sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &storedPath, &rec.SizeBytes, &status,
			&reason, &rec.Segments, &rec.ElapsedMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion: %w", err)
		}
		rec.Status = models.IngestionStatus(status)
		rec.StoredPath = storedPath.String
		rec.Reason = reason.String
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// CountIngestions returns the number of records per status.
func (s *SQLiteIngestionLog) CountIngestions(ctx context.Context) (map[models.IngestionStatus]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM ingestions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count ingestions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.IngestionStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.IngestionStatus(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (s *SQLiteIngestionLog) Close() error {
	return s.db.Close()
}
