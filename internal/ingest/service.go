// Package ingest drives the shard ingestion pipeline: enumerate shard
// descriptors for a date range, materialize and decode each shard, write
// every variable into its region of the store, then verify availability and
// reacquire until the range converges or the budget runs out.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/stratus/internal/availability"
	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/catalog"
	"github.com/xtxerr/stratus/internal/decoder"
	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/logging"
	"github.com/xtxerr/stratus/internal/shard"
	"github.com/xtxerr/stratus/internal/store"
	"github.com/xtxerr/stratus/internal/transfer"
)

var log = logging.Component("ingest")

// Acquirer triggers upstream acquisition of raw shards for a date range.
// The driver invokes it between passes when the availability check reports
// gaps; how the data gets there is not the engine's concern.
type Acquirer interface {
	Acquire(ctx context.Context, r calendar.Range) error
}

// Config enumerates every recognized driver option. Zero values select the
// documented defaults; Validate rejects inconsistent settings.
type Config struct {
	// Epoch is the fixed reference date region offsets are measured from.
	Epoch calendar.Date

	// Groups are the catalog group names this driver ingests.
	Groups []string

	// Layout locates raw shards.
	Layout shard.Layout

	// Workers bounds the number of concurrent shard units. Default 8.
	Workers int

	// WriteTimeout bounds each per-variable store write. 0 disables.
	WriteTimeout time.Duration

	// MaxCycles bounds ingest/verify/reacquire cycles. Default 5.
	MaxCycles int

	// MaxWallClock bounds the whole convergence loop. 0 disables.
	MaxWallClock time.Duration

	// InitialBackoff and MaxBackoff shape the wait between cycles.
	// Defaults 30s and 10m.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.MaxCycles <= 0 {
		c.MaxCycles = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var verrs errors.ValidationErrors
	if c.Epoch.IsZero() {
		verrs.AddField("epoch", "required")
	}
	if len(c.Groups) == 0 {
		verrs.AddField("groups", "at least one group is required")
	}
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if seen[g] {
			verrs.AddField("groups", "duplicate group "+g)
		}
		seen[g] = true
	}
	return verrs.Err()
}

// Service is the ingestion driver.
type Service struct {
	cfg     Config
	catalog *catalog.Catalog
	store   store.Store
	mat     *transfer.Materializer
	dec     decoder.Decoder
	acq     Acquirer
	present availability.Predicate

	stats Stats
}

// New creates the driver. acq may be nil if no reacquisition collaborator
// exists; the convergence loop then only re-runs ingestion passes.
func New(cfg Config, cat *catalog.Catalog, st store.Store, mat *transfer.Materializer,
	dec decoder.Decoder, acq Acquirer, present availability.Predicate) (*Service, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	for _, g := range cfg.Groups {
		if !cat.Has(g) {
			return nil, fmt.Errorf("%q: %w", g, errors.ErrUnknownGroup)
		}
	}
	if present == nil {
		return nil, errors.NewValidation("presence predicate", "required")
	}
	return &Service{
		cfg:     cfg,
		catalog: cat,
		store:   st,
		mat:     mat,
		dec:     dec,
		acq:     acq,
		present: present,
	}, nil
}

// Stats returns a snapshot-friendly reference to the driver counters.
func (s *Service) Stats() *Stats {
	return &s.stats
}

// unit is one (shard, region, variables) ingestion work item.
type unit struct {
	desc   shard.Descriptor
	region store.Region
	vars   []string
}

// plan expands the range into work units and verifies that no two units in
// the pass target overlapping regions of the same variable. Enumeration
// produces disjoint regions by construction; the check guards against
// catalog misconfiguration (the same variable reachable through two
// groups at the same offset is tolerated only at distinct regions).
func (s *Service) plan(r calendar.Range) ([]unit, error) {
	descs, err := shard.Enumerate(s.catalog, s.cfg.Layout, s.cfg.Groups, r)
	if err != nil {
		return nil, err
	}

	units := make([]unit, 0, len(descs))
	claimed := make(map[string][]store.Region)
	for _, desc := range descs {
		region, vars, err := shard.ComputeRegion(s.catalog, desc, s.cfg.Epoch)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			name := ArrayName(desc.Group, v)
			for _, prev := range claimed[name] {
				if region.Overlaps(prev) {
					return nil, fmt.Errorf("array %q: %s overlaps %s: %w",
						name, region, prev, errors.ErrRegionOverlap)
				}
			}
			claimed[name] = append(claimed[name], region)
		}
		units = append(units, unit{desc: desc, region: region, vars: vars})
	}
	return units, nil
}

// runUnit executes materialize → decode → write for one shard. Returns the
// number of variables written and the unit's error, if any. The temp file
// is released on every path, including cancellation.
func (s *Service) runUnit(ctx context.Context, u unit) (int, error) {
	t0 := time.Now()
	local, release, err := s.mat.Materialize(ctx, u.desc.URL)
	if err != nil {
		return 0, err
	}
	defer release()
	s.stats.transfer.observe(time.Since(t0))

	t1 := time.Now()
	fields := make(map[string]decoder.Field, len(u.vars))
	for _, v := range u.vars {
		field, err := s.dec.Decode(local, v)
		if err != nil {
			return 0, err
		}
		fields[v] = field
	}
	s.stats.decode.observe(time.Since(t1))

	t2 := time.Now()
	written, err := WriteShard(ctx, s.store, u.desc, u.region, u.vars, fields, s.cfg.WriteTimeout)
	if err != nil {
		return written, err
	}
	s.stats.write.observe(time.Since(t2))
	return written, nil
}

// Ingest runs one full pass over the range. Per-shard failures are
// recorded in the report and do not abort sibling units; catalog and epoch
// errors abort immediately.
func (s *Service) Ingest(ctx context.Context, r calendar.Range) (*Report, error) {
	started := time.Now()
	units, err := s.plan(r)
	if err != nil {
		return nil, err
	}
	log.Info("pass started", "range", r.String(), "units", len(units), "workers", s.cfg.Workers)

	var (
		mu       sync.Mutex
		failures []ShardFailure
		written  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, u := range units {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.stats.ShardsAttempted.Add(1)
			n, err := s.runUnit(gctx, u)
			s.stats.VariablesWritten.Add(int64(n))
			mu.Lock()
			written += n
			mu.Unlock()
			if err != nil {
				if errors.IsFatal(err) || gctx.Err() != nil {
					return err
				}
				s.stats.ShardsFailed.Add(1)
				mu.Lock()
				failures = append(failures, ShardFailure{
					Group: u.desc.Group,
					URL:   u.desc.URL,
					Date:  u.desc.Date,
					Err:   err.Error(),
				})
				mu.Unlock()
				log.Warn("shard failed", "shard", u.desc.String(), "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.stats.PassesCompleted.Add(1)

	sort.Slice(failures, func(i, j int) bool { return failures[i].URL < failures[j].URL })
	report := &Report{
		Range:            r,
		ShardsAttempted:  len(units),
		ShardsFailed:     len(failures),
		VariablesWritten: written,
		FailedShards:     failures,
		Elapsed:          time.Since(started),
		Transfer:         s.stats.transfer.summary(),
		Decode:           s.stats.decode.summary(),
		Write:            s.stats.write.summary(),
	}
	log.Info("pass complete", "range", r.String(),
		"attempted", report.ShardsAttempted, "failed", report.ShardsFailed,
		"variables", report.VariablesWritten, "elapsed", report.Elapsed)
	return report, nil
}

// Verify returns the dates in the range whose raw data is absent.
func (s *Service) Verify(ctx context.Context, r calendar.Range) ([]calendar.Date, error) {
	return availability.FindMissing(ctx, r, s.present)
}

// Update runs the convergence loop: ingest, verify, and if gaps remain,
// invoke the acquirer and try again, up to the cycle and wall-clock
// budgets. On exhaustion the last report is returned together with a
// ConvergenceError naming the still-missing dates; the loop never spins
// forever.
func (s *Service) Update(ctx context.Context, r calendar.Range) (*Report, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if s.cfg.MaxWallClock > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MaxWallClock)
		defer cancel()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.InitialBackoff
	bo.MaxInterval = s.cfg.MaxBackoff
	bo.MaxElapsedTime = s.cfg.MaxWallClock
	bo.Reset()

	var rep *Report
	for cycle := 1; ; cycle++ {
		var err error
		rep, err = s.Ingest(ctx, r)
		if err != nil {
			return nil, err
		}
		rep.Cycles = cycle

		missing, err := s.Verify(ctx, r)
		if err != nil {
			return rep, err
		}
		rep.MissingDates = missing

		if len(missing) == 0 && rep.ShardsFailed == 0 {
			rep.Converged = true
			log.Info("converged", "range", r.String(), "cycles", cycle)
			return rep, nil
		}
		if cycle >= s.cfg.MaxCycles {
			break
		}

		if s.acq != nil && len(missing) > 0 {
			log.Info("reacquiring raw shards", "range", r.String(),
				"missing", len(missing), "cycle", cycle)
			if err := s.acq.Acquire(ctx, r); err != nil {
				if ctx.Err() != nil {
					break
				}
				log.Warn("reacquisition failed", "error", err)
			}
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return rep, &errors.ConvergenceError{
				Cycles:  cycle,
				Missing: missingStrings(rep.MissingDates),
				Failing: failingURLs(rep.FailedShards),
			}
		}
	}

	return rep, &errors.ConvergenceError{
		Cycles:  rep.Cycles,
		Missing: missingStrings(rep.MissingDates),
		Failing: failingURLs(rep.FailedShards),
	}
}
