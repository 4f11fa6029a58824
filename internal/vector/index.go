// Package vector provides the vector index used for nearest-neighbor retrieval.
package vector

import "context"

// Index stores fixed-dimension vectors at consecutive positions and answers
// k-nearest-neighbor queries. Positions start at 0 and are never reused.
type Index interface {
	// Add appends vectors and returns the position of the first one.
	// Either all vectors are appended or none are.
	Add(ctx context.Context, vectors [][]float32) (int, error)
	// Search returns up to k neighbors of query ordered by ascending distance.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	Size() int
	Dimensions() int
}

// Neighbor is a single search hit: the stored vector's position and its
// squared Euclidean distance to the query (lower is closer).
type Neighbor struct {
	Position int
	Distance float64
}
