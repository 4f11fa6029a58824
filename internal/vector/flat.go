package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FlatIndex is an exact L2 index over a flat slice of vectors. Every query scans
// all stored vectors, so cost grows linearly with the number of segments; it is
// meant for collections bounded by the catalog ceilings.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Add copies vectors into the index. Dimensions are checked for the whole batch
// before anything is appended.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) (int, error) {
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return 0, fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), f.dimensions)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	first := len(f.vectors)
	for _, v := range vectors {
		vec := make([]float32, f.dimensions)
		copy(vec, v)
		f.vectors = append(f.vectors, vec)
	}
	return first, nil
}

// Search returns the k stored vectors closest to query by squared Euclidean
// distance. k larger than the population is clamped; equal distances keep
// insertion order.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), f.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	scored := make([]Neighbor, len(f.vectors))
	for i, vec := range f.vectors {
		scored[i] = Neighbor{Position: i, Distance: SquaredL2(query, vec)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k:k], nil
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimensions returns the vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}
