// Package embedding maps text to fixed-dimension vectors. The same Embedder must
// be used for ingestion and for queries; distances between vectors produced by
// different models are meaningless.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Name identifies the provider and model, e.g. "openai:text-embedding-3-small".
	Name() string
	Close() error
}
