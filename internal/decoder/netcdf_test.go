package decoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"

	"github.com/xtxerr/stratus/internal/errors"
)

// writeNetCDF creates a classic NetCDF file with a [time, values] float32
// variable per entry.
func writeNetCDF(t *testing.T, vars map[string][]float32, timeLen, sampleSize int) string {
	t.Helper()

	h := cdf.NewHeader([]string{"time", "values"}, []int{timeLen, sampleSize})
	for name := range vars {
		h.AddVariable(name, []string{"time", "values"}, []float32{0})
	}
	h.Define()
	for _, err := range h.Check() {
		t.Fatalf("header check: %v", err)
	}

	path := filepath.Join(t.TempDir(), "shard.nc")
	ff, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer ff.Close()

	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatalf("cdf.Create: %v", err)
	}
	for name, values := range vars {
		w := f.Writer(name, []int{0, 0}, []int{timeLen, sampleSize})
		if _, err := w.Write(values); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return path
}

func TestDecode(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	path := writeNetCDF(t, map[string][]float32{"tp": values}, 2, 4)

	field, err := NetCDF{}.Decode(path, "tp")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if field.TimeLen() != 2 || field.SampleSize() != 4 {
		t.Errorf("field dims = (%d, %d), want (2, 4)", field.TimeLen(), field.SampleSize())
	}
	if err := field.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	for i, v := range field.Values {
		if v != values[i] {
			t.Fatalf("value %d = %v, want %v", i, v, values[i])
		}
	}
}

func TestDecodeSecondVariable(t *testing.T) {
	path := writeNetCDF(t, map[string][]float32{
		"d":  {1, 1, 1, 1},
		"vo": {2, 2, 2, 2},
	}, 2, 2)

	field, err := NetCDF{}.Decode(path, "vo")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for i, v := range field.Values {
		if v != 2 {
			t.Fatalf("value %d = %v, want 2", i, v)
		}
	}
}

func TestDecodeMissingVariable(t *testing.T) {
	path := writeNetCDF(t, map[string][]float32{"tp": {1, 2}}, 2, 1)

	_, err := NetCDF{}.Decode(path, "absent")
	if !errors.Is(err, errors.ErrDecode) {
		t.Errorf("Decode(absent) error = %v, want ErrDecode", err)
	}
}

func TestDecodeMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.nc")
	if err := os.WriteFile(path, []byte("not netcdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := NetCDF{}.Decode(path, "tp")
	if !errors.Is(err, errors.ErrDecode) {
		t.Errorf("Decode(garbage) error = %v, want ErrDecode", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := NetCDF{}.Decode(filepath.Join(t.TempDir(), "absent.nc"), "tp")
	if !errors.Is(err, errors.ErrDecode) {
		t.Errorf("Decode(missing) error = %v, want ErrDecode", err)
	}
}

func TestFieldSampleSize(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  int
	}{
		{name: "3d", field: Field{Shape: []int{24, 10, 20}}, want: 200},
		{name: "1d", field: Field{Shape: []int{24}}, want: 1},
		{name: "empty", field: Field{}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.SampleSize(); got != tt.want {
				t.Errorf("SampleSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFieldValidate(t *testing.T) {
	ok := Field{Values: make([]float32, 6), Shape: []int{2, 3}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	bad := Field{Values: make([]float32, 5), Shape: []int{2, 3}}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() = nil error for mismatched shape")
	}
}
