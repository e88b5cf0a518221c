package vectorstore

import "errors"

// ErrDimensionMismatch is returned when a snapshot mixes vectors of different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Storage holds one dense vector per document and scores a query against all of them.
type Storage interface {
	// Reset replaces every stored vector. Empty vectors are allowed and always score 0.
	Reset(vectors [][]float64) error
	// Similarities returns the cosine similarity of query to each stored vector, in storage order.
	Similarities(query []float64) []float64
	Len() int
	Dimension() int
}
