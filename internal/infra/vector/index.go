package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.VectorIndex = (*Index)(nil)

// Index is a brute-force exact L2 index over embedding/fragment pairs.
// At single-document corpus sizes a linear scan is sub-millisecond and, unlike
// approximate structures, its ranking is exact. Records are append-only, so
// concurrent readers are safe under the RWMutex.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	fragments []string
}

// NewIndex creates an index for vectors of the given fixed dimension.
func NewIndex(dimension int) *Index {
	return &Index{dimension: dimension}
}

func (ix *Index) Dimension() int { return ix.dimension }

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Add appends a record. No deduplication: re-adding identical content creates
// a duplicate record.
func (ix *Index) Add(vec []float64, fragment string) error {
	if len(vec) != ix.dimension {
		return fmt.Errorf("add: got %d dims, index has %d: %w", len(vec), ix.dimension, domain.ErrDimensionMismatch)
	}
	cp := make([]float64, len(vec))
	copy(cp, vec)

	ix.mu.Lock()
	ix.vectors = append(ix.vectors, cp)
	ix.fragments = append(ix.fragments, fragment)
	ix.mu.Unlock()
	return nil
}

// Search returns up to k fragments ordered by ascending L2 distance to the
// query. Ties keep insertion order. An empty index yields an empty slice.
func (ix *Index) Search(query []float64, k int) ([]string, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("search: got %d dims, index has %d: %w", len(query), ix.dimension, domain.ErrDimensionMismatch)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.vectors)
	if n == 0 {
		return []string{}, nil
	}
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}

	dists := make([]float64, n)
	order := make([]int, n)
	for i, v := range ix.vectors {
		dists[i] = l2(v, query)
		order[i] = i
	}
	// Stable keeps insertion order for equal distances.
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	out := make([]string, 0, k)
	for _, idx := range order[:k] {
		out = append(out, ix.fragments[idx])
	}
	return out, nil
}

func l2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
