// Package config provides configuration loading, defaults, and validation
// for the stratus daemon.
//
// All recognized options are enumerated explicitly; unknown keys in the
// YAML file are a load error, not silently ignored.
package config

import "time"

// =============================================================================
// Ingestion Defaults
// =============================================================================

const (
	// DefaultEpoch is the reference date region offsets are measured from.
	// Override via config: ingest.epoch
	DefaultEpoch = "1900-01-01"

	// DefaultWorkers is the number of concurrent shard ingestion units.
	// Override via config: ingest.workers
	DefaultWorkers = 8

	// DefaultWriteTimeout bounds each per-variable store write.
	// Override via config: ingest.write_timeout
	DefaultWriteTimeout = 5 * time.Minute
)

// =============================================================================
// Transfer Defaults
// =============================================================================

const (
	// DefaultCopyTimeout bounds each remote shard copy.
	// Override via config: raw.copy_timeout
	DefaultCopyTimeout = 10 * time.Minute
)

// =============================================================================
// Update Loop Defaults
// =============================================================================

const (
	// DefaultWindowMonthsBack selects the policy window: the n-th previous
	// month is ingested, because reanalysis data for a month is final
	// roughly three months later.
	// Override via config: update.window_months_back
	DefaultWindowMonthsBack = 3

	// DefaultMaxCycles bounds ingest/verify/reacquire cycles before the
	// loop gives up with a convergence error.
	// Override via config: update.max_cycles
	DefaultMaxCycles = 5

	// DefaultInitialBackoff is the wait after the first incomplete cycle.
	// Override via config: update.initial_backoff
	DefaultInitialBackoff = 30 * time.Second

	// DefaultMaxBackoff caps the wait between cycles.
	// Override via config: update.max_backoff
	DefaultMaxBackoff = 10 * time.Minute

	// DefaultMaxWallClock bounds the whole convergence loop.
	// Override via config: update.max_wall_clock
	DefaultMaxWallClock = 12 * time.Hour
)

// =============================================================================
// Store Defaults
// =============================================================================

const (
	// DefaultChunkLen is the number of timestamps per store chunk file:
	// 31 days of hourly samples, so a month shard touches at most two
	// chunks.
	// Override via config: store.chunk_len
	DefaultChunkLen = 744
)
