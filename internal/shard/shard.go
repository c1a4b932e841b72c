// Package shard maps physical shard files to logical store coordinates.
//
// A shard filename encodes a calendar identity and a group key:
//
//	20230901_hres_dve.grb2                   one day, model-level group
//	202309_hres_sfc.grb2                     one month, single-level group
//	202309_hres_pcp.grb2_surface_tp.grib     month file split per variable
//
// Parse reduces every producible pattern to exactly one catalog key, and
// ComputeRegion turns a descriptor plus a fixed epoch into the half-open
// slice of the store's time axis the shard occupies.
package shard

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/catalog"
	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/store"
)

// groupMarker separates the date token from the group token in shard
// filenames.
const groupMarker = "_hres_"

// subSplitMarker appears in filenames of groups that were physically
// divided into one file per variable.
const subSplitMarker = ".grb2_"

// Descriptor identifies one physical input shard.
type Descriptor struct {
	// Group is the catalog key, after sub-split normalization.
	Group string

	// URL locates the shard (local path or remote URI).
	URL string

	// Date is the calendar identity parsed from the filename. For
	// daily-resolution groups this is the first day of the shard's month.
	Date calendar.Date

	// Daily mirrors the group's daily-resolution attribute: the shard is a
	// month file covering every day of Date's month.
	Daily bool
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s@%s", d.Group, d.Date)
}

// Parse derives a Descriptor from a shard URL. The reduction is total:
// every producible filename pattern maps to exactly one catalog group, and
// anything else fails with ErrBadShardName or ErrUnknownGroup.
func Parse(url string, cat *catalog.Catalog) (Descriptor, error) {
	base := path.Base(url)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	dateToken, groupToken, found := strings.Cut(base, groupMarker)
	if !found {
		return Descriptor{}, fmt.Errorf("%q: no %q marker: %w", url, groupMarker, errors.ErrBadShardName)
	}
	if groupToken == "" {
		return Descriptor{}, fmt.Errorf("%q: empty group token: %w", url, errors.ErrBadShardName)
	}

	// A sub-split file keeps its parent's extension inside the name:
	// "pcp.grb2_surface_tp" reduces to the owning key "pcp_surface_tp".
	if strings.Contains(groupToken, "_") {
		groupToken = strings.Replace(groupToken, subSplitMarker, "_", 1)
	}
	if strings.Contains(groupToken, ".") {
		return Descriptor{}, fmt.Errorf("%q: unrecognized group token %q: %w", url, groupToken, errors.ErrBadShardName)
	}

	g, err := cat.Group(groupToken)
	if err != nil {
		return Descriptor{}, err
	}

	date, err := parseDateToken(dateToken)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%q: %v: %w", url, err, errors.ErrBadShardName)
	}
	if g.Daily {
		// Month files store every day of their month; their identity is the
		// first day.
		date = date.FirstOfMonth()
	}

	return Descriptor{
		Group: g.Name,
		URL:   url,
		Date:  date,
		Daily: g.Daily,
	}, nil
}

// parseDateToken parses YYYYMM or YYYYMMDD.
func parseDateToken(token string) (calendar.Date, error) {
	if len(token) != 6 && len(token) != 8 {
		return calendar.Date{}, fmt.Errorf("date token %q: want 6 or 8 digits", token)
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return calendar.Date{}, fmt.Errorf("date token %q: non-digit", token)
		}
	}
	year, _ := strconv.Atoi(token[:4])
	month, _ := strconv.Atoi(token[4:6])
	if month < 1 || month > 12 {
		return calendar.Date{}, fmt.Errorf("date token %q: month %d out of range", token, month)
	}
	day := 1
	if len(token) == 8 {
		day, _ = strconv.Atoi(token[6:8])
		if day < 1 || day > calendar.DaysInMonth(year, time.Month(month)) {
			return calendar.Date{}, fmt.Errorf("date token %q: day %d out of range", token, day)
		}
	}
	return calendar.Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// ComputeRegion maps a descriptor and the store epoch to the region of the
// time axis the shard occupies, plus the variables it carries.
//
// start is the day offset from the epoch times the group's sample rate; the
// region spans one day for per-day shards and the true day count of the
// shard's month for daily-resolution month files.
func ComputeRegion(cat *catalog.Catalog, desc Descriptor, epoch calendar.Date) (store.Region, []string, error) {
	g, err := cat.Group(desc.Group)
	if err != nil {
		return store.Region{}, nil, err
	}

	days := calendar.DaysBetween(epoch, desc.Date)
	if days < 0 {
		return store.Region{}, nil, fmt.Errorf("shard %s predates epoch %s: %w",
			desc, epoch, errors.ErrOutOfRange)
	}

	dayCount := 1
	if g.Daily {
		dayCount = calendar.DaysInMonth(desc.Date.Year, desc.Date.Month)
	}

	region := store.Region{
		Start: days * g.SamplesPerDay,
		End:   days*g.SamplesPerDay + g.SamplesPerDay*dayCount,
	}
	vars, err := cat.Lookup(desc.Group)
	if err != nil {
		return store.Region{}, nil, err
	}
	return region, vars, nil
}
