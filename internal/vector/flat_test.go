package vector

import (
	"context"
	"math"
	"testing"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := idx.Add(ctx, [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if first != 0 {
		t.Errorf("first position = %d, want 0", first)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 0 || results[0].Distance != 0 {
		t.Errorf("top result = %+v, want position 0 at distance 0", results[0])
	}
	if results[1].Position != 1 {
		t.Errorf("second result position = %d, want 1", results[1].Position)
	}
	if math.Abs(results[1].Distance-0.02) > 1e-6 {
		t.Errorf("second distance = %v, want 0.02", results[1].Distance)
	}
}

func TestFlatIndex_AddReturnsNextPosition(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	if _, err := idx.Add(ctx, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	first, err := idx.Add(ctx, [][]float32{{1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if first != 2 {
		t.Errorf("first position = %d, want 2", first)
	}
}

func TestFlatIndex_AddIsAllOrNothing(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	_, err := idx.Add(context.Background(), [][]float32{{1, 0}, {1, 0, 0}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if idx.Size() != 0 {
		t.Errorf("Size=%d after rejected batch, want 0", idx.Size())
	}
}

func TestFlatIndex_SearchClampsK(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_, _ = idx.Add(ctx, [][]float32{{0, 0}, {3, 4}})

	results, err := idx.Search(ctx, []float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected clamp to 2 results, got %d", len(results))
	}
	if results[1].Distance != 25 {
		t.Errorf("squared distance = %v, want 25", results[1].Distance)
	}
}

func TestFlatIndex_SearchAscendingAndStable(t *testing.T) {
	idx, _ := NewFlatIndex(1)
	ctx := context.Background()
	_, _ = idx.Add(ctx, [][]float32{{5}, {1}, {-1}, {3}, {1}})

	results, err := idx.Search(ctx, []float32{0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not ascending at %d: %+v", i, results)
		}
	}
	if results[0].Position != 1 || results[1].Position != 2 || results[2].Position != 4 {
		t.Errorf("ties should keep insertion order, got %+v", results)
	}
}

func TestFlatIndex_SearchEmptyAndBadInput(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil || len(results) != 0 {
		t.Errorf("empty index: got %v, %v", results, err)
	}
	if _, err := idx.Search(ctx, []float32{1}, 3); err == nil {
		t.Error("expected query dimension mismatch error")
	}
	_, _ = idx.Add(ctx, [][]float32{{1, 0}})
	if results, _ := idx.Search(ctx, []float32{1, 0}, 0); len(results) != 0 {
		t.Errorf("k=0 should return nothing, got %v", results)
	}
}

func TestNewFlatIndex_invalidDimensions(t *testing.T) {
	if _, err := NewFlatIndex(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestSquaredL2(t *testing.T) {
	if got := SquaredL2([]float32{0, 0}, []float32{3, 4}); got != 25 {
		t.Errorf("SquaredL2 = %v, want 25", got)
	}
}
