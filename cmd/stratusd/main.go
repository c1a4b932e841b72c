// stratusd ingests calendar-addressed raw shards into a chunked array store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/stratus/config"
	"github.com/xtxerr/stratus/internal/availability"
	"github.com/xtxerr/stratus/internal/calendar"
	"github.com/xtxerr/stratus/internal/catalog"
	"github.com/xtxerr/stratus/internal/decoder"
	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/ingest"
	"github.com/xtxerr/stratus/internal/jobs"
	"github.com/xtxerr/stratus/internal/logging"
	"github.com/xtxerr/stratus/internal/shard"
	"github.com/xtxerr/stratus/internal/store"
	"github.com/xtxerr/stratus/internal/transfer"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		if errors.IsConvergence(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	startStr := flag.String("start", "", "window start YYYY-MM-DD (overrides policy window)")
	endStr := flag.String("end", "", "window end YYYY-MM-DD (overrides policy window)")
	workers := flag.Int("workers", 0, "concurrent shard units (overrides config)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	if *workers > 0 {
		cfg.Ingest.Workers = *workers
	}

	logging.Init(parseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	log := logging.Component("main")
	log.Info("stratusd starting", "version", Version, "config", *cfgPath)

	epoch, err := cfg.EpochDate()
	if err != nil {
		log.Error("bad epoch", "error", err)
		return err
	}

	cat := catalog.Default()
	groups := cfg.Ingest.Groups
	if len(groups) == 0 {
		groups = cat.Names()
	}

	// Policy window: the n-th previous month, unless overridden.
	window := calendar.PreviousMonthWindow(calendar.Today(), cfg.Update.WindowMonthsBack)
	if *startStr != "" || *endStr != "" {
		window, err = overrideWindow(window, *startStr, *endStr)
		if err != nil {
			log.Error("bad window override", "error", err)
			return err
		}
	}
	log.Info("update window", "range", window.String())

	// Store: open if present, otherwise create from the catalog.
	st, err := openOrCreateStore(cfg, cat, groups, epoch, window)
	if err != nil {
		log.Error("open store", "error", err)
		return err
	}
	defer st.Close()

	// Transport + materializer
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := transfer.NewRouter()
	gcs, err := transfer.NewGCSTransport(ctx)
	if err != nil {
		log.Warn("gcs transport unavailable, gs:// urls will fail", "error", err)
	} else {
		router.Register("gs", gcs)
		defer gcs.Close()
	}
	mat := transfer.NewMaterializer(router, cfg.Raw.TempDir, cfg.Raw.CopyTimeout.Duration())

	layout := shard.Layout{
		DailyRoot:   cfg.Raw.DailyRoot,
		MonthlyRoot: cfg.Raw.MonthlyRoot,
	}

	// Reacquisition is optional: without a download job the loop only
	// re-runs ingestion passes.
	var acq ingest.Acquirer
	if cfg.Jobs.Download.Command != "" {
		acq = jobs.NewAcquirer(jobs.ExecRunner{}, cfg.Jobs.Download, cfg.Jobs.Splits)
	}

	svc, err := ingest.New(ingest.Config{
		Epoch:          epoch,
		Groups:         groups,
		Layout:         layout,
		Workers:        cfg.Ingest.Workers,
		WriteTimeout:   cfg.Ingest.WriteTimeout.Duration(),
		MaxCycles:      cfg.Update.MaxCycles,
		MaxWallClock:   cfg.Update.MaxWallClock.Duration(),
		InitialBackoff: cfg.Update.InitialBackoff.Duration(),
		MaxBackoff:     cfg.Update.MaxBackoff.Duration(),
	}, cat, st, mat, decoder.NetCDF{}, acq,
		availability.RawPredicate(cat, layout, groups, router))
	if err != nil {
		log.Error("create driver", "error", err)
		return err
	}

	report, err := svc.Update(ctx, window)
	if report != nil {
		logReport(log, report)
	}
	if err != nil {
		log.Error("update failed", "error", err)
		return err
	}
	log.Info("stratusd done")
	return nil
}

// openOrCreateStore opens the configured store, creating it from the catalog
// on first run. Either way the time extent is grown to cover the window.
func openOrCreateStore(cfg *config.Config, cat *catalog.Catalog, groups []string,
	epoch calendar.Date, window calendar.Range) (*store.Local, error) {

	required, err := requiredExtent(cat, groups, epoch, window)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err == nil {
		if err := st.Resize(required); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if cfg.Store.SampleSize <= 0 {
		return nil, errors.NewValidation("store.sample_size",
			"required to create a new store")
	}
	var vars []store.VariableSpec
	for _, name := range groups {
		g, err := cat.Group(name)
		if err != nil {
			return nil, err
		}
		for _, v := range g.Variables {
			vars = append(vars, store.VariableSpec{
				Name:       ingest.ArrayName(name, v),
				TimeLen:    required,
				SampleSize: cfg.Store.SampleSize,
			})
		}
	}
	return store.Create(cfg.Store.Path, "stratus", cfg.Store.ChunkLen, vars)
}

// requiredExtent returns the time extent needed to hold every group's region
// through the end of the window.
func requiredExtent(cat *catalog.Catalog, groups []string, epoch calendar.Date,
	window calendar.Range) (int, error) {

	days := calendar.DaysBetween(epoch, window.End) + 1
	if days <= 0 {
		return 0, fmt.Errorf("window %s precedes epoch %s: %w",
			window, epoch, errors.ErrOutOfRange)
	}
	spd := 0
	for _, name := range groups {
		g, err := cat.Group(name)
		if err != nil {
			return 0, err
		}
		spd = max(spd, g.SamplesPerDay)
	}
	return days * spd, nil
}

func overrideWindow(w calendar.Range, startStr, endStr string) (calendar.Range, error) {
	var err error
	if startStr != "" {
		if w.Start, err = calendar.Parse(startStr); err != nil {
			return w, err
		}
	}
	if endStr != "" {
		if w.End, err = calendar.Parse(endStr); err != nil {
			return w, err
		}
	}
	return w, w.Validate()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logReport(log *slog.Logger, r *ingest.Report) {
	log.Info("final report",
		"range", r.Range.String(),
		"converged", r.Converged,
		"cycles", r.Cycles,
		"attempted", r.ShardsAttempted,
		"failed", r.ShardsFailed,
		"variables_written", r.VariablesWritten,
		"missing_dates", len(r.MissingDates),
		"elapsed", r.Elapsed,
		"transfer_p95_ms", r.Transfer.P95Ms,
		"decode_p95_ms", r.Decode.P95Ms,
		"write_p95_ms", r.Write.P95Ms,
	)
	for _, f := range r.FailedShards {
		log.Warn("failed shard", "group", f.Group, "date", f.Date.String(),
			"url", f.URL, "error", f.Err)
	}
	for _, d := range r.MissingDates {
		log.Warn("missing date", "date", d.String())
	}
}
