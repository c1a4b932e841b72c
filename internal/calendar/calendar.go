// Package calendar provides the exact date arithmetic the ingestion engine
// is built on: day offsets from a fixed epoch, true month lengths in the
// proleptic Gregorian calendar, and inclusive date ranges used for shard
// enumeration and availability checks.
package calendar

import (
	"fmt"
	"time"

	"github.com/xtxerr/stratus/internal/errors"
)

// Date is a calendar date (UTC, day granularity).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns a normalized Date. Out-of-range components are normalized the
// way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime truncates t to a calendar date in UTC.
func FromTime(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse parses a date in YYYY-MM-DD form.
func Parse(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Today returns the current date in UTC.
func Today() Date {
	return FromTime(time.Now())
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// After reports whether d is later than o.
func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

// Equal reports whether d and o are the same date.
func (d Date) Equal(o Date) bool {
	return d == o
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// AddMonths returns the date n months after d, normalized.
func (d Date) AddMonths(n int) Date {
	return FromTime(d.Time().AddDate(0, n, 0))
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: DaysInMonth(d.Year, d.Month)}
}

// DaysInMonth returns the number of days in the given month, accounting for
// leap years.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of days from a to b (negative if b is
// earlier than a).
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()) / (24 * time.Hour))
}

// Range is an inclusive pair of calendar dates.
type Range struct {
	Start Date
	End   Date
}

// MonthRange returns the full range of the given month.
func MonthRange(year int, month time.Month) Range {
	return Range{
		Start: Date{Year: year, Month: month, Day: 1},
		End:   Date{Year: year, Month: month, Day: DaysInMonth(year, month)},
	}
}

// PreviousMonthWindow returns the full month range of the n-th month before
// today's month. n=1 is last month. The automatic update policy uses n=3:
// reanalysis data for a month is considered final roughly three months later.
func PreviousMonthWindow(today Date, n int) Range {
	first := today.FirstOfMonth().AddMonths(-n)
	return MonthRange(first.Year, first.Month)
}

// Validate checks that the range is well-formed.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.NewValidation("date range", "start and end are required")
	}
	if r.End.Before(r.Start) {
		return errors.NewValidation("date range",
			fmt.Sprintf("end %s precedes start %s", r.End, r.Start))
	}
	return nil
}

// Contains reports whether d falls within the inclusive range.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of dates in the inclusive range.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Dates returns every date in the inclusive range in order.
func (r Range) Dates() []Date {
	if r.End.Before(r.Start) {
		return nil
	}
	dates := make([]Date, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// Months returns the first day of every month touched by the range, in
// order.
func (r Range) Months() []Date {
	if r.End.Before(r.Start) {
		return nil
	}
	var months []Date
	for d := r.Start.FirstOfMonth(); !d.After(r.End); d = d.AddMonths(1) {
		months = append(months, d)
	}
	return months
}

// String formats the range as "start..end".
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
