package jobs

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/stratus/internal/calendar"
)

// Placeholders recognized in job argument templates.
const (
	placeholderStart = "{start}" // range start, YYYY-MM-DD
	placeholderEnd   = "{end}"   // range end, YYYY-MM-DD
	placeholderMonth = "{month}" // range start month, YYYY/MM
)

// splitWorkers bounds concurrently running split jobs.
const splitWorkers = 4

// Template describes one parameterized bulk job.
type Template struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// render expands placeholders against the date range.
func (t Template) render(r calendar.Range) Job {
	repl := strings.NewReplacer(
		placeholderStart, r.Start.String(),
		placeholderEnd, r.End.String(),
		placeholderMonth, fmt.Sprintf("%04d/%02d", r.Start.Year, r.Start.Month),
	)
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = repl.Replace(a)
	}
	return Job{Name: t.Name, Command: t.Command, Args: args}
}

// Acquirer rebuilds raw shards for a date range: first the download job,
// then the per-dataset split jobs in parallel.
type Acquirer struct {
	runner   Runner
	download Template
	splits   []Template
}

// NewAcquirer creates a job-backed acquirer. splits may be empty when no
// dataset needs per-variable splitting.
func NewAcquirer(runner Runner, download Template, splits []Template) *Acquirer {
	return &Acquirer{runner: runner, download: download, splits: splits}
}

// Acquire implements ingest.Acquirer.
func (a *Acquirer) Acquire(ctx context.Context, r calendar.Range) error {
	if err := a.runner.Run(ctx, a.download.render(r)); err != nil {
		return fmt.Errorf("download job: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(splitWorkers)
	for _, t := range a.splits {
		t := t
		g.Go(func() error {
			if err := a.runner.Run(gctx, t.render(r)); err != nil {
				return fmt.Errorf("split job %q: %w", t.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
