package shard

import (
	"testing"
	"time"

	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/errors"
)

func TestShardURL(t *testing.T) {
	cat := testCatalog(t)
	layout := Layout{
		DailyRoot:   "gs://raw/daily/",
		MonthlyRoot: "gs://raw/monthly",
	}

	tests := []struct {
		name  string
		group string
		date  calendar.Date
		want  string
	}{
		{
			name:  "per-day group",
			group: "dve",
			date:  calendar.New(2023, time.September, 5),
			want:  "gs://raw/daily/2023/20230905_hres_dve.grb2",
		},
		{
			name:  "month group",
			group: "sfc",
			date:  calendar.New(2023, time.September, 1),
			want:  "gs://raw/monthly/2023/202309_hres_sfc.grb2",
		},
		{
			name:  "month group ignores day component",
			group: "sfc",
			date:  calendar.New(2023, time.September, 17),
			want:  "gs://raw/monthly/2023/202309_hres_sfc.grb2",
		},
		{
			name:  "sub-split forecast group",
			group: "pcp_surface_tp",
			date:  calendar.New(2023, time.September, 1),
			want:  "gs://raw/monthly/2023/202309_hres_pcp.grb2_surface_tp.grib",
		},
		{
			name:  "sub-split soil group",
			group: "soil_depthBelowLandLayer_stl1",
			date:  calendar.New(2024, time.February, 1),
			want:  "gs://raw/monthly/2024/202402_hres_soil.grb2_depthBelowLandLayer_stl1.grib",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := cat.Group(tt.group)
			if err != nil {
				t.Fatalf("Group(%s) error = %v", tt.group, err)
			}
			if got := layout.ShardURL(g, tt.date); got != tt.want {
				t.Errorf("ShardURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Every URL the layout produces must parse back to the descriptor it was
// produced from.
func TestShardURLRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	layout := Layout{DailyRoot: "gs://raw/daily", MonthlyRoot: "gs://raw/monthly"}

	for _, name := range cat.Names() {
		g, err := cat.Group(name)
		if err != nil {
			t.Fatalf("Group(%s) error = %v", name, err)
		}
		date := calendar.New(2023, time.September, 1)
		url := layout.ShardURL(g, date)

		desc, err := Parse(url, cat)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", url, err)
			continue
		}
		if desc.Group != name {
			t.Errorf("Parse(%q).Group = %q, want %q", url, desc.Group, name)
		}
		if desc.Date != date {
			t.Errorf("Parse(%q).Date = %v, want %v", url, desc.Date, date)
		}
		if desc.Daily != g.Daily {
			t.Errorf("Parse(%q).Daily = %v, want %v", url, desc.Daily, g.Daily)
		}
	}
}

func TestEnumerate(t *testing.T) {
	cat := testCatalog(t)
	layout := Layout{DailyRoot: "gs://raw/daily", MonthlyRoot: "gs://raw/monthly"}
	september := calendar.MonthRange(2023, time.September)

	descs, err := Enumerate(cat, layout, []string{"dve", "sfc"}, september)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	// 30 per-day shards for dve plus one month shard for sfc.
	if len(descs) != 31 {
		t.Fatalf("Enumerate() returned %d descriptors, want 31", len(descs))
	}

	days, months := 0, 0
	for _, d := range descs {
		if d.Daily {
			months++
		} else {
			days++
		}
		if d.URL == "" {
			t.Errorf("descriptor %s has no URL", d)
		}
	}
	if days != 30 || months != 1 {
		t.Errorf("got %d daily and %d monthly descriptors, want 30 and 1", days, months)
	}
}

func TestEnumerateSpansMonths(t *testing.T) {
	cat := testCatalog(t)
	layout := Layout{DailyRoot: "gs://raw/daily", MonthlyRoot: "gs://raw/monthly"}
	r := calendar.Range{
		Start: calendar.New(2023, time.November, 20),
		End:   calendar.New(2023, time.December, 10),
	}

	descs, err := Enumerate(cat, layout, []string{"sfc"}, r)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("Enumerate() returned %d descriptors, want one per touched month", len(descs))
	}
}

func TestEnumerateUnknownGroup(t *testing.T) {
	cat := testCatalog(t)
	layout := Layout{}
	_, err := Enumerate(cat, layout, []string{"dve", "xyz"}, calendar.MonthRange(2023, time.September))
	if !errors.Is(err, errors.ErrUnknownGroup) {
		t.Errorf("Enumerate() error = %v, want ErrUnknownGroup", err)
	}
}

func TestEnumerateInvalidRange(t *testing.T) {
	cat := testCatalog(t)
	r := calendar.Range{
		Start: calendar.New(2023, time.September, 30),
		End:   calendar.New(2023, time.September, 1),
	}
	if _, err := Enumerate(cat, Layout{}, []string{"dve"}, r); err == nil {
		t.Error("Enumerate() = nil error for inverted range")
	}
}
