package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/stratus/internal/errors"
)

const metaFile = "store.yaml"

// DefaultChunkLen is the default number of timestamps per chunk file.
const DefaultChunkLen = 744 // 31 days of hourly samples

// VariableSpec declares one variable array at store creation.
type VariableSpec struct {
	// Name is the variable name.
	Name string `yaml:"name"`

	// TimeLen is the declared time-axis extent.
	TimeLen int `yaml:"time_len"`

	// SampleSize is the number of values per timestamp.
	SampleSize int `yaml:"sample_size"`
}

type localMeta struct {
	Name      string         `yaml:"name"`
	ChunkLen  int            `yaml:"chunk_len"`
	Variables []VariableSpec `yaml:"variables"`
}

// Local is a directory-backed chunked array store. Each variable owns a
// subdirectory of fixed-length time chunks; metadata lives in store.yaml.
//
// Concurrent writes to different variables proceed in parallel. Writes to
// the same variable are serialized: two disjoint regions may still straddle
// the same chunk file.
type Local struct {
	root string

	mu     sync.RWMutex
	meta   localMeta
	closed bool

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// Create initializes a new local store at root with the declared variables.
// chunkLen <= 0 selects DefaultChunkLen.
func Create(root, name string, chunkLen int, vars []VariableSpec) (*Local, error) {
	if chunkLen <= 0 {
		chunkLen = DefaultChunkLen
	}
	var verrs errors.ValidationErrors
	if name == "" {
		verrs.AddField("store name", "required")
	}
	if len(vars) == 0 {
		verrs.AddField("variables", "at least one variable is required")
	}
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if v.Name == "" {
			verrs.AddField("variable", "name is required")
			continue
		}
		if seen[v.Name] {
			verrs.AddField("variable "+v.Name, "duplicate variable")
		}
		seen[v.Name] = true
		if v.TimeLen <= 0 {
			verrs.AddField("variable "+v.Name, "time extent must be positive")
		}
		if v.SampleSize <= 0 {
			verrs.AddField("variable "+v.Name, "sample size must be positive")
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	s := &Local{
		root: root,
		meta: localMeta{
			Name:      name,
			ChunkLen:  chunkLen,
			Variables: append([]VariableSpec(nil), vars...),
		},
		locks: make(map[string]*sync.Mutex),
	}
	if err := s.writeMeta(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens an existing local store.
func Open(root string) (*Local, error) {
	raw, err := os.ReadFile(filepath.Join(root, metaFile))
	if err != nil {
		return nil, fmt.Errorf("read store metadata: %w", err)
	}
	var meta localMeta
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse store metadata: %w", err)
	}
	if meta.ChunkLen <= 0 {
		return nil, errors.NewValidation("store metadata", "chunk_len must be positive")
	}
	return &Local{
		root:  root,
		meta:  meta,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Local) writeMeta() error {
	raw, err := yaml.Marshal(&s.meta)
	if err != nil {
		return fmt.Errorf("encode store metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, metaFile), raw, 0o644); err != nil {
		return fmt.Errorf("write store metadata: %w", err)
	}
	return nil
}

// Name returns the store name.
func (s *Local) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Name
}

// Variables returns the declared variable names.
func (s *Local) Variables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.meta.Variables))
	for i, v := range s.meta.Variables {
		names[i] = v.Name
	}
	return names
}

// Array returns the array for the named variable.
func (s *Local) Array(name string) (Array, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.ErrStoreClosed
	}
	for _, v := range s.meta.Variables {
		if v.Name == name {
			return &localArray{store: s, spec: v}, nil
		}
	}
	return nil, fmt.Errorf("%q in store %q: %w", name, s.meta.Name, errors.ErrVariableNotFound)
}

// Resize grows the declared time extent of every variable to timeLen.
// Shrinking is refused: written data must never silently disappear.
func (s *Local) Resize(timeLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	for _, v := range s.meta.Variables {
		if timeLen < v.TimeLen {
			return fmt.Errorf("resize to %d below extent %d of %q: %w",
				timeLen, v.TimeLen, v.Name, errors.ErrOutOfRange)
		}
	}
	for i := range s.meta.Variables {
		s.meta.Variables[i].TimeLen = timeLen
	}
	return s.writeMeta()
}

// Close marks the store closed. Outstanding arrays fail subsequent writes.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Local) varLock(name string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *Local) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// localArray implements Array over a variable's chunk directory.
type localArray struct {
	store *Local
	spec  VariableSpec
}

func (a *localArray) Name() string    { return a.spec.Name }
func (a *localArray) Len() int        { return a.spec.TimeLen }
func (a *localArray) SampleSize() int { return a.spec.SampleSize }

func (a *localArray) chunkPath(chunk int) string {
	return filepath.Join(a.store.root, a.spec.Name, fmt.Sprintf("chunk-%06d.parquet", chunk))
}

func (a *localArray) checkRegion(region Region) error {
	if err := region.Validate(); err != nil {
		return err
	}
	if region.End > a.spec.TimeLen {
		return fmt.Errorf("region %s exceeds time extent %d of %q: %w",
			region, a.spec.TimeLen, a.spec.Name, errors.ErrOutOfRange)
	}
	return nil
}

// WriteRegion writes values into the region, one chunk file at a time.
// Chunks are read, overlaid, and atomically replaced, so re-running the
// same shard overwrites the same positions with the same values.
func (a *localArray) WriteRegion(ctx context.Context, region Region, values []float32) error {
	if a.store.isClosed() {
		return errors.ErrStoreClosed
	}
	if err := a.checkRegion(region); err != nil {
		return err
	}
	if want := region.Len() * a.spec.SampleSize; len(values) != want {
		return fmt.Errorf("%q region %s: got %d values, want %d: %w",
			a.spec.Name, region, len(values), want, errors.ErrWrite)
	}

	lock := a.store.varLock(a.spec.Name)
	lock.Lock()
	defer lock.Unlock()

	chunkLen := a.store.meta.ChunkLen
	for chunk := region.Start / chunkLen; chunk*chunkLen < region.End; chunk++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := a.chunkPath(chunk)
		rows, err := readChunk(path)
		if err != nil {
			return fmt.Errorf("%q chunk %d: %w: %v", a.spec.Name, chunk, errors.ErrWrite, err)
		}

		lo := max(region.Start, chunk*chunkLen)
		hi := min(region.End, (chunk+1)*chunkLen)
		for idx := lo; idx < hi; idx++ {
			off := (idx - region.Start) * a.spec.SampleSize
			row := make([]float32, a.spec.SampleSize)
			copy(row, values[off:off+a.spec.SampleSize])
			rows[idx] = row
		}

		if err := writeChunk(path, rows); err != nil {
			return fmt.Errorf("%q chunk %d: %w: %v", a.spec.Name, chunk, errors.ErrWrite, err)
		}
	}
	return nil
}

// ReadRegion returns the region's values; unwritten positions are zero.
func (a *localArray) ReadRegion(ctx context.Context, region Region) ([]float32, error) {
	if a.store.isClosed() {
		return nil, errors.ErrStoreClosed
	}
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}

	out := make([]float32, region.Len()*a.spec.SampleSize)
	chunkLen := a.store.meta.ChunkLen
	for chunk := region.Start / chunkLen; chunk*chunkLen < region.End; chunk++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := readChunk(a.chunkPath(chunk))
		if err != nil {
			return nil, fmt.Errorf("%q chunk %d: %w", a.spec.Name, chunk, err)
		}

		lo := max(region.Start, chunk*chunkLen)
		hi := min(region.End, (chunk+1)*chunkLen)
		for idx := lo; idx < hi; idx++ {
			row, ok := rows[idx]
			if !ok {
				continue
			}
			off := (idx - region.Start) * a.spec.SampleSize
			copy(out[off:off+a.spec.SampleSize], row)
		}
	}
	return out, nil
}
