// Package errors defines the error taxonomy for the stratus ingestion engine.
//
// Errors fall into two classes:
//   - Fatal: configuration or addressing bugs that abort the current pass
//     (unknown group, region outside the store bounds, convergence budget
//     exhausted).
//   - Recoverable: per-shard failures that are recorded and retried on the
//     next ingestion pass (transfer, decode, store write).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the ingestion pipeline.
var (
	// ErrUnknownGroup indicates a catalog lookup on an unregistered group
	// name. This is a configuration bug, not a data problem.
	ErrUnknownGroup = errors.New("unknown variable group")

	// ErrOutOfRange indicates a computed store region that falls outside the
	// epoch or the declared array bounds. Signals an epoch or catalog
	// mismatch; never recovered by retrying.
	ErrOutOfRange = errors.New("region out of range")

	// ErrBadShardName indicates a shard URL that does not match any
	// producible filename pattern.
	ErrBadShardName = errors.New("unparseable shard name")

	// ErrTransfer indicates a failed shard copy (network, permission,
	// missing object). Retried on the next pass.
	ErrTransfer = errors.New("shard transfer failed")

	// ErrDecode indicates a malformed shard or a variable missing from a
	// decoded shard. The shard is skipped and retried on the next pass.
	ErrDecode = errors.New("shard decode failed")

	// ErrWrite indicates a store write failure. The affected shard is
	// retried on the next pass; sibling variables already written stay
	// written.
	ErrWrite = errors.New("store write failed")

	// ErrVariableNotFound indicates a store lookup for an undeclared
	// variable array.
	ErrVariableNotFound = errors.New("variable not found in store")

	// ErrRegionOverlap indicates two descriptors in one pass resolving to
	// overlapping regions for the same variable.
	ErrRegionOverlap = errors.New("overlapping shard regions")

	// ErrInvalidConfig indicates an invalid configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Is is a convenience wrapper for errors.Is.
var Is = errors.Is

// As is a convenience wrapper for errors.As.
var As = errors.As

// New is a convenience wrapper for errors.New.
var New = errors.New

// ConvergenceError reports that the availability loop exhausted its retry or
// wall-clock budget while dates were still missing.
type ConvergenceError struct {
	Cycles  int      // reacquisition cycles attempted
	Missing []string // dates (YYYY-MM-DD) still absent
	Failing []string // shard URLs that failed in the final pass
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("ingestion did not converge after %d cycles", e.Cycles)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf("; %d dates missing: %s", len(e.Missing), strings.Join(e.Missing, ", "))
	}
	if len(e.Failing) > 0 {
		msg += fmt.Sprintf("; %d shards failing: %s", len(e.Failing), strings.Join(e.Failing, ", "))
	}
	return msg
}

// IsConvergence reports whether err is a ConvergenceError.
func IsConvergence(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}

// IsFatal reports whether err aborts the whole pass rather than a single
// shard unit.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnknownGroup) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrRegionOverlap) ||
		errors.Is(err, ErrInvalidConfig) ||
		IsConvergence(err)
}

// IsRetriable reports whether err is a per-shard failure that the driver
// retries on the next full pass.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrTransfer) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrWrite)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewValidation creates a validation error with field context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}
	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors were collected, otherwise the collection.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
