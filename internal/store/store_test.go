package store

import (
	"testing"

	"github.com/xtxerr/stratus/internal/errors"
)

func TestRegionValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{name: "valid", region: Region{Start: 0, End: 24}},
		{name: "single sample", region: Region{Start: 5, End: 6}},
		{name: "empty", region: Region{Start: 5, End: 5}, wantErr: true},
		{name: "inverted", region: Region{Start: 6, End: 5}, wantErr: true},
		{name: "negative start", region: Region{Start: -1, End: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.region, err, tt.wantErr)
			}
			if tt.wantErr && err != nil && !errors.Is(err, errors.ErrOutOfRange) {
				t.Errorf("Validate(%v) error = %v, want ErrOutOfRange", tt.region, err)
			}
		})
	}
}

func TestRegionLen(t *testing.T) {
	r := Region{Start: 10, End: 34}
	if r.Len() != 24 {
		t.Errorf("Len() = %d, want 24", r.Len())
	}
}

func TestRegionOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Region
		want bool
	}{
		{name: "identical", a: Region{0, 24}, b: Region{0, 24}, want: true},
		{name: "partial", a: Region{0, 24}, b: Region{12, 36}, want: true},
		{name: "contained", a: Region{0, 24}, b: Region{6, 12}, want: true},
		{name: "adjacent", a: Region{0, 24}, b: Region{24, 48}, want: false},
		{name: "disjoint", a: Region{0, 24}, b: Region{48, 72}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
