// Package store defines the chunked array container the ingestion engine
// writes into, addressed by variable name and a half-open region on the
// time axis.
//
// The engine does not own the store: it holds a reference long enough to
// complete one write pass. Writes are per-variable and idempotent; there is
// no cross-variable transaction. The local implementation keeps each
// variable as a directory of fixed-length time chunks encoded as Parquet
// files, with store metadata in a YAML sidecar.
package store

import (
	"context"
	"fmt"

	"github.com/xtxerr/stratus/internal/errors"
)

// Region is a half-open interval [Start, End) on a variable array's time
// axis. The full extent of all other axes is implied.
type Region struct {
	Start int
	End   int
}

// Len returns the number of timestamps the region covers.
func (r Region) Len() int {
	return r.End - r.Start
}

// Validate checks the region invariants: non-negative start, positive
// length.
func (r Region) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("region start %d before epoch: %w", r.Start, errors.ErrOutOfRange)
	}
	if r.End <= r.Start {
		return fmt.Errorf("region %s is empty: %w", r, errors.ErrOutOfRange)
	}
	return nil
}

// Overlaps reports whether r and o share any position.
func (r Region) Overlaps(o Region) bool {
	return r.Start < o.End && o.Start < r.End
}

// String formats the region as [start,end).
func (r Region) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Array is one named variable array inside a store.
type Array interface {
	// Name returns the variable name.
	Name() string

	// Len returns the declared time-axis extent.
	Len() int

	// SampleSize returns the number of values stored per timestamp (the
	// product of the non-time dimensions).
	SampleSize() int

	// WriteRegion writes values into [region.Start, region.End). The value
	// count must equal region.Len()*SampleSize(). A region beyond the
	// declared extent is ErrOutOfRange, never a silent resize. Rewriting a
	// region with the same values is a no-op in effect.
	WriteRegion(ctx context.Context, region Region, values []float32) error

	// ReadRegion returns the values in [region.Start, region.End).
	// Positions never written read back as zero.
	ReadRegion(ctx context.Context, region Region) ([]float32, error)
}

// Store is a chunk-addressable array container keyed by variable name.
type Store interface {
	// Name identifies the store (for logs and reports).
	Name() string

	// Array returns the array for the named variable, or
	// ErrVariableNotFound.
	Array(name string) (Array, error)

	// Variables returns the declared variable names.
	Variables() []string

	// Close releases the store reference.
	Close() error
}
