// Package search owns the in-memory retrieval engine: the vector index, the
// document catalog that describes it, and the ranking of search results.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/catalog"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/fingerprint"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

var (
	// ErrCapacity is returned by AddDocument when the document ceiling is reached.
	ErrCapacity = catalog.ErrCapacity
	// ErrSegmentCapacity is returned by AddDocument when the document would
	// push the segment total past the segment ceiling.
	ErrSegmentCapacity = catalog.ErrSegmentCapacity
	// ErrNothingToIndex is returned by AddDocument when the text yields no segments.
	ErrNothingToIndex = errors.New("document produced no segments")
)

const defaultBatchSize = 10

// Chunker splits document text into segments.
type Chunker interface {
	Chunk(text string) []string
}

// Engine owns the vector index and the catalog. Index and catalog are only
// mutated together under the write lock, so position p in the index always
// refers to segment p in the catalog.
type Engine struct {
	embedder  embedding.Embedder
	chunker   Chunker
	index     vector.Index
	catalog   *catalog.Catalog
	topK      int
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	mu        sync.RWMutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records ingestion and search metrics.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithBatchSize sets how many segments are embedded per call.
func WithBatchSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewEngine creates an empty engine whose index has the embedder's dimension.
func NewEngine(embedder embedding.Embedder, chunker Chunker, cfg config.RetrievalConfig, opts ...EngineOption) (*Engine, error) {
	index, err := vector.NewFlatIndex(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	e := &Engine{
		embedder:  embedder,
		chunker:   chunker,
		index:     index,
		catalog:   catalog.New(cfg.MaxDocuments, cfg.MaxSegments),
		topK:      cfg.TopK,
		batchSize: defaultBatchSize,
		logger:    zap.NewNop(),
	}
	if e.topK <= 0 {
		e.topK = 3
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// AddDocument chunks and embeds text and commits it as one document. Segments
// are embedded into a local buffer first; the index and catalog are only
// touched once every batch has succeeded, so a failed call leaves both as
// they were. Duplicate filenames are accepted and recorded again.
func (e *Engine) AddDocument(ctx context.Context, text, filename string) (*models.Document, error) {
	e.mu.RLock()
	err := e.catalog.CheckCapacity(0)
	e.mu.RUnlock()
	if err != nil {
		e.logger.Warn("document rejected", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	texts := e.chunker.Chunk(text)
	if len(texts) == 0 {
		return nil, ErrNothingToIndex
	}

	e.mu.RLock()
	err = e.catalog.CheckCapacity(len(texts))
	e.mu.RUnlock()
	if err != nil {
		e.logger.Warn("document rejected", zap.String("filename", filename), zap.Int("segments", len(texts)), zap.Error(err))
		return nil, err
	}

	vectors, err := e.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	doc := models.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		CharCount:  utf8.RuneCountInString(text),
		IngestedAt: time.Now().UTC(),
	}
	segments := make([]models.Segment, len(texts))
	for i, t := range texts {
		segments[i] = models.Segment{
			DocumentID:  doc.ID,
			Filename:    filename,
			Ordinal:     i,
			Text:        t,
			Fingerprint: fingerprint.Of(t),
		}
	}

	if err := e.commit(ctx, &doc, segments, vectors); err != nil {
		if errors.Is(err, ErrCapacity) || errors.Is(err, ErrSegmentCapacity) {
			e.logger.Warn("document rejected", zap.String("filename", filename), zap.Error(err))
		}
		return nil, err
	}
	e.logger.Info("document indexed",
		zap.String("filename", filename),
		zap.String("document_id", doc.ID),
		zap.Int("segments", len(segments)))
	return &doc, nil
}

func (e *Engine) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed segments %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed segments %d-%d: got %d vectors", start, end-1, len(batch))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// commit appends vectors and metadata under the write lock. Capacity is
// checked again because another ingestion may have committed meanwhile.
func (e *Engine) commit(ctx context.Context, doc *models.Document, segments []models.Segment, vectors [][]float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.catalog.CheckCapacity(len(segments)); err != nil {
		return err
	}
	next := e.index.Size()
	if next != e.catalog.SegmentCount() {
		return fmt.Errorf("index holds %d vectors but catalog holds %d segments", next, e.catalog.SegmentCount())
	}
	for i := range segments {
		segments[i].Position = next + i
	}
	if _, err := e.index.Add(ctx, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	if err := e.catalog.Append(*doc, segments); err != nil {
		return fmt.Errorf("catalog out of sync with index: %w", err)
	}
	doc.SegmentCount = len(segments)
	e.metrics.ObserveCommit(len(segments), e.catalog.DocumentCount(), e.catalog.SegmentCount())
	return nil
}

// Search returns up to topK segments closest to query, ascending by distance.
// topK <= 0 uses the configured default; it is clamped to the population.
// An empty index returns no hits and no error.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]*models.Hit, error) {
	start := time.Now()
	hits, err := e.search(ctx, query, topK)
	e.metrics.ObserveSearch(time.Since(start), err)
	return hits, err
}

func (e *Engine) search(ctx context.Context, query string, topK int) ([]*models.Hit, error) {
	if e.index.Size() == 0 {
		return nil, nil
	}
	qv, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if topK <= 0 {
		topK = e.topK
	}

	e.mu.RLock()
	neighbors, err := e.index.Search(ctx, qv, topK)
	if err != nil {
		e.mu.RUnlock()
		return nil, fmt.Errorf("search index: %w", err)
	}
	hits := make([]*models.Hit, 0, len(neighbors))
	for _, n := range neighbors {
		seg, ok := e.catalog.Segment(n.Position)
		if !ok {
			e.logger.Warn("index position without catalog entry", zap.Int("position", n.Position))
			continue
		}
		hits = append(hits, &models.Hit{
			Position:  n.Position,
			Filename:  seg.Filename,
			Text:      seg.Text,
			Distance:  n.Distance,
			Relevance: 1 - n.Distance,
		})
	}
	e.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits, nil
}

// SearchDocuments returns the formatted context for query. Internal errors
// are logged and yield an empty context.
func (e *Engine) SearchDocuments(ctx context.Context, query string, topK int) string {
	hits, err := e.Search(ctx, query, topK)
	if err != nil {
		e.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return ""
	}
	return FormatContext(hits)
}

// Documents returns the catalog's document records in ingestion order.
func (e *Engine) Documents() []models.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Documents()
}

// Stats is a point-in-time view of the engine's size and ceilings.
type Stats struct {
	Documents    int    `json:"documents"`
	Segments     int    `json:"segments"`
	MaxDocuments int    `json:"max_documents"`
	MaxSegments  int    `json:"max_segments"`
	Dimensions   int    `json:"dimensions"`
	Embedder     string `json:"embedder"`
}

// Stats returns the current counts and ceilings.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents:    e.catalog.DocumentCount(),
		Segments:     e.catalog.SegmentCount(),
		MaxDocuments: e.catalog.MaxDocuments(),
		MaxSegments:  e.catalog.MaxSegments(),
		Dimensions:   e.index.Dimensions(),
		Embedder:     e.embedder.Name(),
	}
}

// DocumentCount returns the number of ingested documents.
func (e *Engine) DocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.DocumentCount()
}

// SegmentCount returns the number of indexed segments.
func (e *Engine) SegmentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.SegmentCount()
}

// IndexSize returns the number of vectors in the index. It always equals
// SegmentCount.
func (e *Engine) IndexSize() int {
	return e.index.Size()
}
