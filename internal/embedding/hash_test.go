package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/kotae/internal/vector"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "The quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "The quick brown fox")
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHashEmbedder_UnitLength(t *testing.T) {
	e := NewHashEmbedder(32)
	v, _ := e.Embed(context.Background(), "vector search over documents")
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("squared norm = %v, want 1", sum)
	}
}

func TestHashEmbedder_SharedVocabularyIsCloser(t *testing.T) {
	e := NewHashEmbedder(1024)
	ctx := context.Background()
	doc, _ := e.Embed(ctx, "photosynthesis converts sunlight into chemical energy in plants")
	near, _ := e.Embed(ctx, "plants convert sunlight into chemical energy")
	far, _ := e.Embed(ctx, "quarterly revenue grew in the retail segment")
	if vector.SquaredL2(doc, near) >= vector.SquaredL2(doc, far) {
		t.Errorf("related text should be closer: near=%v far=%v",
			vector.SquaredL2(doc, near), vector.SquaredL2(doc, far))
	}
}

func TestHashEmbedder_EmbedBatch(t *testing.T) {
	e := NewHashEmbedder(16)
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(out))
	}
	if e.Dimensions() != 16 || e.Name() != "hash" {
		t.Errorf("unexpected metadata: dims=%d name=%s", e.Dimensions(), e.Name())
	}
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).Embed(ctx, "x"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! It's 2024.")
	want := []string{"hello", "world", "it", "s", "2024"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
