package repository

// VectorIndex stores embedding/fragment pairs and answers exact
// nearest-neighbor queries. Append-only; records are never updated or removed.
type VectorIndex interface {
	// Add appends a record. Fails with domain.ErrDimensionMismatch when the
	// vector's length differs from the index dimension.
	Add(vector []float64, fragment string) error

	// Search returns up to k fragments ordered by ascending L2 distance to the
	// query, ties broken by insertion order. An empty index yields an empty
	// slice, not an error.
	Search(query []float64, k int) ([]string, error)

	// Len reports the number of stored records.
	Len() int
}
