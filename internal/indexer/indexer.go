// Package indexer turns files into indexed documents: it validates and stores
// uploads, extracts and normalizes their text, splits it into segments and
// hands it to the search engine, recording every attempt in the audit log.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
)

var (
	// ErrFileTooLarge is returned when a file exceeds the upload size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrExtensionNotAllowed is returned when a file's extension is not in the allow-list.
	ErrExtensionNotAllowed = errors.New("unsupported file type")
)

// Result describes a successful ingestion.
type Result struct {
	Document   *models.Document
	StoredPath string
	Elapsed    time.Duration
}

// Indexer validates, stores, extracts and indexes files.
type Indexer struct {
	engine      *search.Engine
	extractor   *extract.Extractor
	uploadDir   string
	maxBytes    int64
	allowedExts []string
	audit       storage.IngestionLog
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the indexer logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithIngestionLog records every attempt in log.
func WithIngestionLog(log storage.IngestionLog) IndexerOption {
	return func(idx *Indexer) { idx.audit = log }
}

// WithMetrics counts ingestion outcomes.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer that stores uploads under cfg.UploadDir and
// enforces cfg's size ceiling and extension allow-list.
func NewIndexer(engine *search.Engine, extractor *extract.Extractor, cfg *config.ServerConfig, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		engine:      engine,
		extractor:   extractor,
		uploadDir:   cfg.UploadDir,
		maxBytes:    cfg.MaxUploadBytes(),
		allowedExts: cfg.AllowedExtensions,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IngestUpload validates an uploaded file, stores it under the upload
// directory and indexes it. size is the declared size, or -1 if unknown; the
// ceiling is enforced on the bytes actually read either way.
func (idx *Indexer) IngestUpload(ctx context.Context, filename string, r io.Reader, size int64) (*Result, error) {
	start := time.Now()
	name := filepath.Base(filepath.Clean("/" + filename))
	rec := &models.IngestionRecord{Filename: name, SizeBytes: size}

	if err := idx.validate(name, size); err != nil {
		return nil, idx.finish(ctx, rec, start, nil, err)
	}
	stored, n, err := idx.store(name, r)
	rec.StoredPath, rec.SizeBytes = stored, n
	if err != nil {
		return nil, idx.finish(ctx, rec, start, nil, err)
	}
	idx.logger.Info("processing file", zap.String("filename", name), zap.String("stored_path", stored), zap.Int64("size_bytes", n))

	doc, err := idx.ingest(ctx, stored, name)
	if ferr := idx.finish(ctx, rec, start, doc, err); ferr != nil {
		return nil, ferr
	}
	return &Result{Document: doc, StoredPath: stored, Elapsed: time.Since(start)}, nil
}

// IngestFile indexes a file already on disk, such as one dropped into a watched
// inbox. The file is not copied.
func (idx *Indexer) IngestFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	name := filepath.Base(path)
	rec := &models.IngestionRecord{Filename: name, StoredPath: path}

	info, err := os.Stat(path)
	if err != nil {
		return nil, idx.finish(ctx, rec, start, nil, fmt.Errorf("stat file: %w", err))
	}
	if !info.Mode().IsRegular() {
		return nil, idx.finish(ctx, rec, start, nil, fmt.Errorf("not a regular file: %s", path))
	}
	rec.SizeBytes = info.Size()
	if err := idx.validate(name, info.Size()); err != nil {
		return nil, idx.finish(ctx, rec, start, nil, err)
	}

	doc, err := idx.ingest(ctx, path, name)
	if ferr := idx.finish(ctx, rec, start, doc, err); ferr != nil {
		return nil, ferr
	}
	return &Result{Document: doc, StoredPath: path, Elapsed: time.Since(start)}, nil
}

func (idx *Indexer) validate(name string, size int64) error {
	if size > idx.maxBytes {
		return fmt.Errorf("%w: max size is %dMB", ErrFileTooLarge, idx.maxBytes/(1024*1024))
	}
	if !extensionAllowed(filepath.Ext(name), idx.allowedExts) {
		return fmt.Errorf("%w: %q", ErrExtensionNotAllowed, filepath.Ext(name))
	}
	return nil
}

// store copies r into the upload directory under a unique name and returns
// the path and byte count. A body over the ceiling is removed again.
func (idx *Indexer) store(name string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(idx.uploadDir, 0755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(idx.uploadDir, uuid.NewString()[:8]+"_"+name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("create stored file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, idx.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > idx.maxBytes {
		err = fmt.Errorf("%w: max size is %dMB", ErrFileTooLarge, idx.maxBytes/(1024*1024))
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrFileTooLarge) {
			return "", n, err
		}
		return "", n, fmt.Errorf("store file: %w", err)
	}
	return path, n, nil
}

func (idx *Indexer) ingest(ctx context.Context, path, name string) (*models.Document, error) {
	text, err := idx.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	// The catalog's CharCount describes this normalized text.
	text = Preprocess(text)
	idx.logger.Debug("extracted text", zap.String("filename", name), zap.Int("chars", len(text)))
	return idx.engine.AddDocument(ctx, text, name)
}

// finish classifies the outcome, logs it, records it in the audit log and
// metrics, and returns err unchanged.
func (idx *Indexer) finish(ctx context.Context, rec *models.IngestionRecord, start time.Time, doc *models.Document, err error) error {
	elapsed := time.Since(start)
	rec.ElapsedMS = elapsed.Milliseconds()
	rec.Status = Classify(err)
	if err != nil {
		rec.Reason = err.Error()
	}
	if doc != nil {
		rec.Segments = doc.SegmentCount
	}

	switch rec.Status {
	case models.IngestionIndexed:
		idx.logger.Info("file indexed",
			zap.String("filename", rec.Filename),
			zap.Int("segments", rec.Segments),
			zap.Duration("elapsed", elapsed))
	case models.IngestionRejected:
		idx.logger.Warn("file rejected", zap.String("filename", rec.Filename), zap.Error(err))
	default:
		idx.logger.Error("file ingestion failed", zap.String("filename", rec.Filename), zap.Error(err))
	}

	idx.metrics.ObserveIngestion(string(rec.Status), elapsed)
	if idx.audit != nil {
		if aerr := idx.audit.RecordIngestion(context.WithoutCancel(ctx), rec); aerr != nil {
			idx.logger.Error("failed to record ingestion", zap.String("filename", rec.Filename), zap.Error(aerr))
		}
	}
	return err
}

// Classify maps an ingestion error to its audit status.
func Classify(err error) models.IngestionStatus {
	switch {
	case err == nil:
		return models.IngestionIndexed
	case errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrExtensionNotAllowed),
		errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, search.ErrCapacity),
		errors.Is(err, search.ErrSegmentCapacity),
		errors.Is(err, search.ErrNothingToIndex):
		return models.IngestionRejected
	default:
		return models.IngestionFailed
	}
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
