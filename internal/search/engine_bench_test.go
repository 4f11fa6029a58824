package search_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/search"
)

func benchEngine(b *testing.B, docs int) *search.Engine {
	b.Helper()
	chunker, err := indexer.NewChunker(300, 50)
	if err != nil {
		b.Fatal(err)
	}
	engine, err := search.NewEngine(embedding.NewHashEmbedder(384), chunker,
		config.RetrievalConfig{MaxDocuments: docs + 1, TopK: 3})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < docs; i++ {
		if _, err := engine.AddDocument(ctx, words(fmt.Sprintf("d%dw", i), 0, 900), fmt.Sprintf("doc%d.txt", i)); err != nil {
			b.Fatal(err)
		}
	}
	return engine
}

func BenchmarkEngine_AddDocument(b *testing.B) {
	chunker, _ := indexer.NewChunker(300, 50)
	text := words("w", 0, 900)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine, _ := search.NewEngine(embedding.NewHashEmbedder(384), chunker, config.RetrievalConfig{MaxDocuments: 1, TopK: 3})
		if _, err := engine.AddDocument(ctx, text, "bench.txt"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngine_SearchDocuments(b *testing.B) {
	engine := benchEngine(b, 50)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.SearchDocuments(ctx, "d7w10 d7w11 d7w12", 3)
	}
}
