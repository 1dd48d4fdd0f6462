// Package sketch implements fixed-memory summaries of unbounded key
// streams: Count-Min for frequency estimation, HyperLogLog for cardinality
// estimation, Bloom filters for membership, and reservoir sampling. All
// structures are plain mutable state with no internal locking; concurrent
// ingestion is done by giving each worker its own instance and combining
// them with Merge.
package sketch

import "errors"

// Configuration errors. They are reported synchronously by the call that
// caused them and are never silently corrected.
var (
	ErrInvalidDimensions  = errors.New("sketch: width and depth must be at least 1")
	ErrInvalidErrorBounds = errors.New("sketch: epsilon and delta must lie in (0, 1)")
	ErrInvalidPrecision   = errors.New("sketch: precision out of supported range")
	ErrShapeMismatch      = errors.New("sketch: cannot merge sketches of different shapes")
)

// FrequencyEstimator answers approximate per-key frequency queries.
type FrequencyEstimator interface {
	Update(key []byte, count uint64)
	Query(key []byte) uint64
}

// CardinalityEstimator answers approximate distinct-count queries.
type CardinalityEstimator interface {
	Add(key []byte)
	Estimate() uint64
}
