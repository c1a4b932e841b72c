// Package availability answers one question: which dates in a range have no
// raw data yet. It is a pure read-check; the driver decides what to do
// about gaps.
package availability

import (
	"context"

	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/catalog"
	"github.com/xtxerr/stratus/internal/logging"
	"github.com/xtxerr/stratus/internal/shard"
)

var log = logging.Component("availability")

// Predicate reports whether the given date's data is present.
type Predicate func(ctx context.Context, d calendar.Date) (bool, error)

// FindMissing iterates every date in the inclusive range, calling the
// predicate exactly once per date, and returns the dates for which it
// reported absence. No retries happen here.
func FindMissing(ctx context.Context, r calendar.Range, present Predicate) ([]calendar.Date, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var missing []calendar.Date
	for _, d := range r.Dates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := present(ctx, d)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// Prober answers existence probes for raw shard URLs. The transfer router
// satisfies this.
type Prober interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// RawPredicate builds a presence predicate over the raw shard layout: a
// date is present only if every group's shard covering that date exists.
// For daily-resolution groups the probe targets the month file.
func RawPredicate(cat *catalog.Catalog, layout shard.Layout, groups []string, prober Prober) Predicate {
	return func(ctx context.Context, d calendar.Date) (bool, error) {
		for _, name := range groups {
			g, err := cat.Group(name)
			if err != nil {
				return false, err
			}
			url := layout.ShardURL(g, d)
			ok, err := prober.Exists(ctx, url)
			if err != nil {
				return false, err
			}
			if !ok {
				log.Info("raw shard missing", "date", d.String(), "url", url)
				return false, nil
			}
		}
		return true, nil
	}
}
