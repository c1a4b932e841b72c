// Package decoder parses a materialized shard's on-disk grid format into
// per-variable numeric arrays. The slice writer only consumes the output;
// the format itself is opaque to the rest of the engine.
package decoder

import (
	"fmt"
)

// Field is one variable's decoded values: time is the leading dimension,
// everything else is flattened in row-major order.
type Field struct {
	Values []float32
	Shape  []int
}

// TimeLen returns the extent of the leading (time) dimension.
func (f Field) TimeLen() int {
	if len(f.Shape) == 0 {
		return 0
	}
	return f.Shape[0]
}

// SampleSize returns the number of values per timestamp.
func (f Field) SampleSize() int {
	if len(f.Shape) < 2 {
		return 1
	}
	n := 1
	for _, d := range f.Shape[1:] {
		n *= d
	}
	return n
}

// Validate checks that the value count matches the declared shape.
func (f Field) Validate() error {
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	if len(f.Values) != n {
		return fmt.Errorf("field has %d values, shape %v wants %d", len(f.Values), f.Shape, n)
	}
	return nil
}

// Decoder extracts one variable from a local shard file.
type Decoder interface {
	Decode(path, variable string) (Field, error)
}
