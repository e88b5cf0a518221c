package memory

import (
	"math"
	"sync"

	"hybridrag/internal/vectorstore"
)

// Storage is an in-memory vector snapshot scored with brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	norms     []float64
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage { return &Storage{} }

// Reset replaces the stored vectors. All non-empty vectors must share one dimension.
// On error the previous contents are kept.
func (s *Storage) Reset(vectors [][]float64) error {
	dimension := 0
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) == 0 {
			continue
		}
		if dimension == 0 {
			dimension = len(v)
		} else if len(v) != dimension {
			return vectorstore.ErrDimensionMismatch
		}
		norms[i] = norm(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = vectors
	s.norms = norms
	return nil
}

// Similarities computes cosine similarity between query and every stored vector.
// A zero-norm vector on either side, or a length mismatch, scores 0.
func (s *Storage) Similarities(query []float64) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]float64, len(s.vectors))
	qn := norm(query)
	if qn == 0 {
		return scores
	}
	for i, v := range s.vectors {
		if s.norms[i] == 0 || len(v) != len(query) {
			continue
		}
		scores[i] = dot(v, query) / (qn * s.norms[i])
	}
	return scores
}

// Len returns the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimension returns the shared vector length, or 0 if every vector is empty.
func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// norm returns the Euclidean length of v.
func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
