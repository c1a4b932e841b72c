package decoder

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/xtxerr/stratus/internal/errors"
)

// NetCDF decodes classic NetCDF shard files.
type NetCDF struct{}

// Decode reads the named variable's full extent from the file.
func (NetCDF) Decode(path, variable string) (Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return Field{}, fmt.Errorf("open shard: %w: %v", errors.ErrDecode, err)
	}
	defer f.Close()

	ff, err := cdf.Open(f)
	if err != nil {
		return Field{}, fmt.Errorf("parse shard header: %w: %v", errors.ErrDecode, err)
	}

	dims := ff.Header.Lengths(variable)
	if len(dims) == 0 {
		return Field{}, fmt.Errorf("variable %q not in shard: %w", variable, errors.ErrDecode)
	}

	n := 1
	for _, d := range dims {
		n *= d
	}

	r := ff.Reader(variable, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return Field{}, fmt.Errorf("read variable %q: %w: %v", variable, errors.ErrDecode, err)
	}

	values := make([]float32, n)
	switch vals := buf.(type) {
	case []float32:
		copy(values, vals)
	case []float64:
		for i, v := range vals {
			values[i] = float32(v)
		}
	case []int32:
		for i, v := range vals {
			values[i] = float32(v)
		}
	case []int16:
		for i, v := range vals {
			values[i] = float32(v)
		}
	case []int8:
		for i, v := range vals {
			values[i] = float32(v)
		}
	default:
		return Field{}, fmt.Errorf("variable %q has unsupported element type %T: %w",
			variable, buf, errors.ErrDecode)
	}

	shape := make([]int, len(dims))
	copy(shape, dims)
	return Field{Values: values, Shape: shape}, nil
}
