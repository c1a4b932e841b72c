package shard

import (
	"fmt"
	"strings"

	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/catalog"
)

// Layout describes where raw shards live: per-day files under DailyRoot and
// month files under MonthlyRoot, both organized by year.
type Layout struct {
	// DailyRoot is the base URL for per-day shards
	// (<root>/<year>/<yyyymmdd>_hres_<group>.grb2).
	DailyRoot string

	// MonthlyRoot is the base URL for month shards
	// (<root>/<year>/<yyyymm>_hres_<group>.grb2, or the sub-split form
	// <yyyymm>_hres_<parent>.grb2_<level>_<var>.grib).
	MonthlyRoot string
}

// fileToken renders the group part of a shard filename. Sub-split groups
// ("pcp_surface_tp") regain their physical form ("pcp.grb2_surface_tp.grib").
func fileToken(group string) string {
	parent, rest, split := strings.Cut(group, "_")
	if split {
		return parent + subSplitMarker + rest + ".grib"
	}
	return group + ".grb2"
}

// ShardURL returns the URL of the shard for the given group and date.
// Daily-resolution groups resolve to their month file regardless of the day
// component of d.
func (l Layout) ShardURL(g catalog.Group, d calendar.Date) string {
	if g.Daily {
		return fmt.Sprintf("%s/%04d/%04d%02d_hres_%s",
			strings.TrimSuffix(l.MonthlyRoot, "/"), d.Year, d.Year, d.Month, fileToken(g.Name))
	}
	return fmt.Sprintf("%s/%04d/%04d%02d%02d_hres_%s",
		strings.TrimSuffix(l.DailyRoot, "/"), d.Year, d.Year, d.Month, d.Day, fileToken(g.Name))
}

// Enumerate expands a date range and a set of group names into the ordered
// stream of shard descriptors one ingestion pass covers: one descriptor per
// month for daily-resolution groups, one per day otherwise. Unknown group
// names fail the whole enumeration.
func Enumerate(cat *catalog.Catalog, layout Layout, groups []string, r calendar.Range) ([]Descriptor, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var descs []Descriptor
	for _, name := range groups {
		g, err := cat.Group(name)
		if err != nil {
			return nil, err
		}
		if g.Daily {
			for _, m := range r.Months() {
				descs = append(descs, Descriptor{
					Group: g.Name,
					URL:   layout.ShardURL(g, m),
					Date:  m,
					Daily: true,
				})
			}
		} else {
			for _, d := range r.Dates() {
				descs = append(descs, Descriptor{
					Group: g.Name,
					URL:   layout.ShardURL(g, d),
					Date:  d,
				})
			}
		}
	}
	return descs, nil
}
