// Package transfer materializes remote shards as transient local files.
//
// A Transport copies bytes and answers existence probes for one URL scheme;
// the Router dispatches on scheme. The Materializer wraps a transport with
// scoped temp-file acquisition: every exit path, including cancellation,
// releases the local copy. Retry policy lives in the driver, not here;
// failures are reported as ErrTransfer.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/xtxerr/stratus/internal/errors"
	"github.com/xtxerr/stratus/internal/logging"
)

var log = logging.Component("transfer")

// Transport copies a remote object to a local file and probes existence.
type Transport interface {
	// Copy downloads src into the local file dst, truncating it.
	Copy(ctx context.Context, src, dst string) error

	// Exists reports whether the object at url is present.
	Exists(ctx context.Context, url string) (bool, error)
}

// Router dispatches transport calls by URL scheme. URLs without a scheme
// are treated as local paths.
type Router struct {
	schemes map[string]Transport
	local   Transport
}

// NewRouter creates a router with a local-filesystem fallback.
func NewRouter() *Router {
	return &Router{
		schemes: make(map[string]Transport),
		local:   LocalTransport{},
	}
}

// Register binds a transport to a URL scheme (e.g. "gs").
func (r *Router) Register(scheme string, t Transport) {
	r.schemes[scheme] = t
}

func (r *Router) transportFor(url string) (Transport, error) {
	scheme, _, found := strings.Cut(url, "://")
	if !found || scheme == "file" {
		return r.local, nil
	}
	t, ok := r.schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("no transport for scheme %q: %w", scheme, errors.ErrTransfer)
	}
	return t, nil
}

// Copy implements Transport.
func (r *Router) Copy(ctx context.Context, src, dst string) error {
	t, err := r.transportFor(src)
	if err != nil {
		return err
	}
	return t.Copy(ctx, src, dst)
}

// Exists implements Transport.
func (r *Router) Exists(ctx context.Context, url string) (bool, error) {
	t, err := r.transportFor(url)
	if err != nil {
		return false, err
	}
	return t.Exists(ctx, url)
}

// Materializer fetches shards into transient local files.
type Materializer struct {
	transport Transport
	dir       string        // temp directory; "" means the OS default
	timeout   time.Duration // per-copy budget; 0 means none
}

// NewMaterializer creates a materializer over the given transport.
func NewMaterializer(transport Transport, dir string, timeout time.Duration) *Materializer {
	return &Materializer{transport: transport, dir: dir, timeout: timeout}
}

// Materialize copies the shard at url into a local temp file whose
// extension matches the source, and returns its path with a release
// function. The caller must invoke release on every path; release is safe
// to call more than once.
func (m *Materializer) Materialize(ctx context.Context, url string) (string, func(), error) {
	ext := path.Ext(url)
	f, err := os.CreateTemp(m.dir, "shard-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w: %v", errors.ErrTransfer, err)
	}
	tmp := f.Name()
	f.Close()

	release := func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			log.Warn("release temp shard", "path", tmp, "error", err)
		}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	log.Debug("materializing shard", "url", url, "tmp", tmp)
	if err := m.transport.Copy(ctx, url, tmp); err != nil {
		release()
		return "", nil, fmt.Errorf("copy %q: %w: %v", url, errors.ErrTransfer, err)
	}
	return tmp, release, nil
}
