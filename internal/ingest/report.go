package ingest

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/xtxerr/stratus/internal/calendar"
)

// Stats holds running counters for the driver. Latency distributions use
// DDSketch so the report can carry percentiles without storing every
// observation.
type Stats struct {
	ShardsAttempted  atomic.Int64
	ShardsFailed     atomic.Int64
	VariablesWritten atomic.Int64
	PassesCompleted  atomic.Int64

	transfer latencySketch
	decode   latencySketch
	write    latencySketch
}

// latencySketch is a mutex-guarded DDSketch of millisecond durations.
type latencySketch struct {
	mu sync.Mutex
	sk *ddsketch.DDSketch
}

func (l *latencySketch) observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sk == nil {
		// 1% relative accuracy is plenty for operational latencies.
		sk, err := ddsketch.NewDefaultDDSketch(0.01)
		if err != nil {
			return
		}
		l.sk = sk
	}
	_ = l.sk.Add(float64(d) / float64(time.Millisecond))
}

func (l *latencySketch) summary() LatencySummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sk == nil || l.sk.GetCount() == 0 {
		return LatencySummary{}
	}
	q := func(p float64) float64 {
		v, err := l.sk.GetValueAtQuantile(p)
		if err != nil {
			return math.NaN()
		}
		return v
	}
	return LatencySummary{
		Count: int64(l.sk.GetCount()),
		P50Ms: q(0.50),
		P95Ms: q(0.95),
		P99Ms: q(0.99),
	}
}

// LatencySummary carries percentile latencies of one pipeline stage.
type LatencySummary struct {
	Count int64
	P50Ms float64
	P95Ms float64
	P99Ms float64
}

// ShardFailure records one shard unit that did not complete.
type ShardFailure struct {
	Group string
	URL   string
	Date  calendar.Date
	Err   string
}

// Report is the driver's ingestion report. Failed shards and missing dates
// are always listed explicitly so callers can distinguish "fully converged"
// from "ingested but gaps remain".
type Report struct {
	Range calendar.Range

	ShardsAttempted  int
	ShardsFailed     int
	VariablesWritten int

	FailedShards []ShardFailure
	MissingDates []calendar.Date

	// Converged is true only when the final availability check found no
	// missing dates and no shard failed in the final pass.
	Converged bool

	// Cycles is the number of ingest/verify cycles run.
	Cycles int

	Elapsed time.Duration

	Transfer LatencySummary
	Decode   LatencySummary
	Write    LatencySummary
}

// missingStrings formats missing dates for the convergence error.
func missingStrings(dates []calendar.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

// failingURLs collects the failed shard URLs for the convergence error.
func failingURLs(failures []ShardFailure) []string {
	out := make([]string, len(failures))
	for i, f := range failures {
		out[i] = f.URL
	}
	return out
}
