package store

import (
	"context"
	"testing"

	"github.com/xtxerr/stratus/internal/errors"
)

func testStore(t *testing.T, chunkLen int, vars []VariableSpec) *Local {
	t.Helper()
	s, err := Create(t.TempDir(), "test", chunkLen, vars)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seq(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		vars []VariableSpec
	}{
		{name: "no variables", vars: nil},
		{name: "empty name", vars: []VariableSpec{{TimeLen: 10, SampleSize: 1}}},
		{name: "duplicate", vars: []VariableSpec{
			{Name: "t", TimeLen: 10, SampleSize: 1},
			{Name: "t", TimeLen: 10, SampleSize: 1},
		}},
		{name: "zero extent", vars: []VariableSpec{{Name: "t", SampleSize: 1}}},
		{name: "zero sample size", vars: []VariableSpec{{Name: "t", TimeLen: 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Create(t.TempDir(), "test", 0, tt.vars); err == nil {
				t.Error("Create() = nil error, want validation failure")
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "t2m", TimeLen: 48, SampleSize: 3}})
	ctx := context.Background()

	arr, err := s.Array("t2m")
	if err != nil {
		t.Fatalf("Array() error = %v", err)
	}
	if arr.Len() != 48 || arr.SampleSize() != 3 {
		t.Fatalf("Array dims = (%d, %d), want (48, 3)", arr.Len(), arr.SampleSize())
	}

	region := Region{Start: 4, End: 28} // straddles chunks 0..3
	values := seq(100, region.Len()*3)
	if err := arr.WriteRegion(ctx, region, values); err != nil {
		t.Fatalf("WriteRegion() error = %v", err)
	}

	got, err := arr.ReadRegion(ctx, region)
	if err != nil {
		t.Fatalf("ReadRegion() error = %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestUnwrittenReadsZero(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "t2m", TimeLen: 48, SampleSize: 2}})
	ctx := context.Background()

	arr, _ := s.Array("t2m")
	if err := arr.WriteRegion(ctx, Region{Start: 8, End: 16}, seq(1, 16)); err != nil {
		t.Fatalf("WriteRegion() error = %v", err)
	}

	// Same chunk, positions before and after the written region.
	got, err := arr.ReadRegion(ctx, Region{Start: 0, End: 24})
	if err != nil {
		t.Fatalf("ReadRegion() error = %v", err)
	}
	for i := 0; i < 16; i++ {
		if got[i] != 0 {
			t.Fatalf("unwritten position %d = %v, want 0", i, got[i])
		}
	}
	for i := 16; i < 32; i++ {
		if got[i] != float32(i-15) {
			t.Fatalf("written position %d = %v, want %v", i, got[i], float32(i-15))
		}
	}
	for i := 32; i < 48; i++ {
		if got[i] != 0 {
			t.Fatalf("unwritten position %d = %v, want 0", i, got[i])
		}
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "sp", TimeLen: 32, SampleSize: 1}})
	ctx := context.Background()

	arr, _ := s.Array("sp")
	region := Region{Start: 2, End: 14}
	values := seq(7, region.Len())

	for i := 0; i < 3; i++ {
		if err := arr.WriteRegion(ctx, region, values); err != nil {
			t.Fatalf("WriteRegion() pass %d error = %v", i, err)
		}
	}

	got, err := arr.ReadRegion(ctx, region)
	if err != nil {
		t.Fatalf("ReadRegion() error = %v", err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], values[i])
		}
	}
}

func TestPartialOverwrite(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "sp", TimeLen: 32, SampleSize: 1}})
	ctx := context.Background()

	arr, _ := s.Array("sp")
	if err := arr.WriteRegion(ctx, Region{Start: 0, End: 16}, seq(0, 16)); err != nil {
		t.Fatalf("WriteRegion() error = %v", err)
	}
	if err := arr.WriteRegion(ctx, Region{Start: 8, End: 24}, seq(100, 16)); err != nil {
		t.Fatalf("WriteRegion() error = %v", err)
	}

	got, err := arr.ReadRegion(ctx, Region{Start: 0, End: 24})
	if err != nil {
		t.Fatalf("ReadRegion() error = %v", err)
	}
	for i := 0; i < 8; i++ {
		if got[i] != float32(i) {
			t.Fatalf("position %d = %v, want %v", i, got[i], float32(i))
		}
	}
	for i := 8; i < 24; i++ {
		if got[i] != float32(100+i-8) {
			t.Fatalf("position %d = %v, want %v", i, got[i], float32(100+i-8))
		}
	}
}

func TestWriteRegionErrors(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "sp", TimeLen: 16, SampleSize: 2}})
	ctx := context.Background()
	arr, _ := s.Array("sp")

	// Beyond declared extent.
	err := arr.WriteRegion(ctx, Region{Start: 8, End: 24}, seq(0, 32))
	if !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("out-of-bounds write error = %v, want ErrOutOfRange", err)
	}

	// Wrong value count.
	err = arr.WriteRegion(ctx, Region{Start: 0, End: 4}, seq(0, 5))
	if !errors.Is(err, errors.ErrWrite) {
		t.Errorf("short write error = %v, want ErrWrite", err)
	}

	// Inverted region.
	err = arr.WriteRegion(ctx, Region{Start: 4, End: 4}, nil)
	if !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("empty region error = %v, want ErrOutOfRange", err)
	}
}

func TestArrayNotFound(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "sp", TimeLen: 16, SampleSize: 1}})
	if _, err := s.Array("t2m"); !errors.Is(err, errors.ErrVariableNotFound) {
		t.Errorf("Array(t2m) error = %v, want ErrVariableNotFound", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Create(dir, "reanalysis", 8, []VariableSpec{{Name: "sp", TimeLen: 32, SampleSize: 1}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	arr, _ := s.Array("sp")
	if err := arr.WriteRegion(ctx, Region{Start: 0, End: 8}, seq(1, 8)); err != nil {
		t.Fatalf("WriteRegion() error = %v", err)
	}
	s.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	if reopened.Name() != "reanalysis" {
		t.Errorf("Name() = %q, want %q", reopened.Name(), "reanalysis")
	}
	vars := reopened.Variables()
	if len(vars) != 1 || vars[0] != "sp" {
		t.Errorf("Variables() = %v, want [sp]", vars)
	}

	arr2, err := reopened.Array("sp")
	if err != nil {
		t.Fatalf("Array() after reopen error = %v", err)
	}
	got, err := arr2.ReadRegion(ctx, Region{Start: 0, End: 8})
	if err != nil {
		t.Fatalf("ReadRegion() after reopen error = %v", err)
	}
	for i := range got {
		if got[i] != float32(1+i) {
			t.Fatalf("value %d = %v after reopen, want %v", i, got[i], float32(1+i))
		}
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open() of an empty directory = nil error")
	}
}

func TestResize(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "test", 8, []VariableSpec{{Name: "sp", TimeLen: 16, SampleSize: 1}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer s.Close()

	if err := s.Resize(64); err != nil {
		t.Fatalf("Resize(64) error = %v", err)
	}
	arr, _ := s.Array("sp")
	if arr.Len() != 64 {
		t.Errorf("Len() after resize = %d, want 64", arr.Len())
	}

	// Shrinking is refused.
	if err := s.Resize(32); !errors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("Resize(32) error = %v, want ErrOutOfRange", err)
	}

	// The grown extent survives a reopen.
	s.Close()
	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()
	arr2, _ := reopened.Array("sp")
	if arr2.Len() != 64 {
		t.Errorf("Len() after reopen = %d, want 64", arr2.Len())
	}
}

func TestClosedStore(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{{Name: "sp", TimeLen: 16, SampleSize: 1}})
	arr, _ := s.Array("sp")
	s.Close()

	if _, err := s.Array("sp"); !errors.Is(err, errors.ErrStoreClosed) {
		t.Errorf("Array() on closed store error = %v, want ErrStoreClosed", err)
	}
	err := arr.WriteRegion(context.Background(), Region{Start: 0, End: 1}, seq(0, 1))
	if !errors.Is(err, errors.ErrStoreClosed) {
		t.Errorf("WriteRegion() on closed store error = %v, want ErrStoreClosed", err)
	}
}

func TestConcurrentWritesDifferentVariables(t *testing.T) {
	s := testStore(t, 8, []VariableSpec{
		{Name: "u10", TimeLen: 64, SampleSize: 1},
		{Name: "v10", TimeLen: 64, SampleSize: 1},
	})
	ctx := context.Background()

	done := make(chan error, 2)
	for _, name := range []string{"u10", "v10"} {
		name := name
		go func() {
			arr, err := s.Array(name)
			if err != nil {
				done <- err
				return
			}
			for start := 0; start < 64; start += 8 {
				r := Region{Start: start, End: start + 8}
				if err := arr.WriteRegion(ctx, r, seq(start, 8)); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent write error = %v", err)
		}
	}

	for _, name := range []string{"u10", "v10"} {
		arr, _ := s.Array(name)
		got, err := arr.ReadRegion(ctx, Region{Start: 0, End: 64})
		if err != nil {
			t.Fatalf("ReadRegion(%s) error = %v", name, err)
		}
		for i := range got {
			if got[i] != float32(i) {
				t.Fatalf("%s position %d = %v, want %v", name, i, got[i], float32(i))
			}
		}
	}
}
