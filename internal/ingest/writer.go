package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/xtxerr/stratus/internal/decoder"
	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/logging"
	"github.com/xtxerr/stratus/internal/shard"
	"github.com/xtxerr/stratus/internal/store"
)

// ArrayName returns the store array name for one variable of a group.
// Names are group-scoped because the same physical quantity can arrive
// through more than one group (surface geopotential in both "zs" and "sfc").
func ArrayName(group, variable string) string {
	return group + "/" + variable
}

// WriteShard writes each decoded variable into its slice of the store.
//
// Writes are per-variable sub-operations: a failure stops the loop but does
// not roll back siblings already written. The shard counts as ingested only
// when every variable succeeds; re-running the whole shard is safe because
// the region bounds and source values are deterministic. Returns the number
// of variables written.
func WriteShard(ctx context.Context, st store.Store, desc shard.Descriptor,
	region store.Region, vars []string, fields map[string]decoder.Field,
	writeTimeout time.Duration) (int, error) {

	log := logging.WithContext(logging.ContextWithShard(ctx, desc.URL))

	written := 0
	for _, name := range vars {
		arr, err := st.Array(ArrayName(desc.Group, name))
		if err != nil {
			return written, err
		}

		field, ok := fields[name]
		if !ok {
			return written, fmt.Errorf("variable %q not decoded from %s: %w",
				name, desc, errors.ErrDecode)
		}
		if want := region.Len() * arr.SampleSize(); len(field.Values) != want {
			return written, fmt.Errorf("variable %q of %s: decoded %d values, region %s wants %d: %w",
				name, desc, len(field.Values), region, want, errors.ErrDecode)
		}

		wctx := ctx
		if writeTimeout > 0 {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(ctx, writeTimeout)
			defer cancel()
		}
		if err := arr.WriteRegion(wctx, region, field.Values); err != nil {
			if errors.IsFatal(err) {
				return written, err
			}
			return written, fmt.Errorf("variable %q of %s: %w: %v", name, desc, errors.ErrWrite, err)
		}
		written++
		log.Debug("variable written", "variable", name, "region", region.String())
	}
	return written, nil
}
