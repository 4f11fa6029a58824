package embedding

import (
	"fmt"
	"os"

	"github.com/hyperjump/kotae/internal/config"
)

// New builds the embedder selected by cfg.Provider and wraps it in an LRU
// cache when cfg.CacheSize > 0.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case "", "hash":
		inner = NewHashEmbedder(cfg.Dimensions)
	case "openai":
		inner = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:            os.Getenv(cfg.APIKeyEnv),
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(inner, cfg.CacheSize), nil
	}
	return inner, nil
}
