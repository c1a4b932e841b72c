// Package jobs delegates bulk work to external job submission: downloading
// raw shards for a date window and splitting month files per variable. The
// engine only constructs parameter sets and watches the job's output; how
// the job runs is not its concern.
package jobs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/xtxerr/stratus/internal/logging"
)

var log = logging.Component("jobs")

// abortMarkers are output lines that mean the job is doomed; seeing one
// kills the process instead of waiting for it to finish on its own.
var abortMarkers = []string{"Failed", "JOB_STATE_CANCELLING"}

// Job is one bulk job invocation.
type Job struct {
	Name    string
	Command string
	Args    []string
}

// Runner submits a bulk job and waits for its result.
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// ExecRunner runs jobs as local subprocesses, streaming their combined
// output to the log line by line.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, job Job) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, job.Command, job.Args...)
	// Orphaned grandchildren can hold the output pipe open after an abort;
	// don't let them stall Wait forever.
	cmd.WaitDelay = 10 * time.Second
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return fmt.Errorf("start job %q: %w", job.Name, err)
	}
	log.Info("job started", "job", job.Name, "command", job.Command)

	var abortLine string
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			log.Info(line, "job", job.Name)
			if abortLine == "" {
				for _, marker := range abortMarkers {
					if strings.Contains(line, marker) {
						abortLine = line
						cancel()
						break
					}
				}
			}
		}
	}()

	waitErr := cmd.Wait()
	pw.Close()
	<-done
	pr.Close()

	if abortLine != "" {
		return fmt.Errorf("job %q aborted on output: %s", job.Name, abortLine)
	}
	if waitErr != nil {
		return fmt.Errorf("job %q: %w", job.Name, waitErr)
	}
	log.Info("job finished", "job", job.Name)
	return nil
}
