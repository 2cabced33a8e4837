// Package jobs runs periodic background work such as reminder dispatch and
// expired-appointment purging.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart triggers a run immediately instead of waiting one interval.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Recorder receives the outcome of every run.
type Recorder interface {
	JobRun(job string, err error)
}

// Runner drives each job on its own ticker. Runs of the same job never
// overlap: a tick that arrives while a run is in progress is dropped.
type Runner struct {
	logger   zerolog.Logger
	recorder Recorder
	jobs     []Job
	wg       sync.WaitGroup
}

func NewRunner(logger zerolog.Logger, recorder Recorder) *Runner {
	return &Runner{logger: logger, recorder: recorder}
}

// Add registers a job. It must be called before Start.
func (r *Runner) Add(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start launches every registered job. They stop when ctx is cancelled;
// call Wait to block until in-flight runs have returned.
func (r *Runner) Start(ctx context.Context) {
	for _, job := range r.jobs {
		job := job
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.loop(ctx, job)
		}()
	}
}

// Wait blocks until all job loops have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	r.logger.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("job scheduled")
	if job.RunOnStart {
		r.RunOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Str("job", job.Name).Msg("job stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx, job)
		}
	}
}

// RunOnce executes job a single time, bounded by its interval, recovering
// from panics so one bad run cannot kill the loop.
func (r *Runner) RunOnce(ctx context.Context, job Job) (err error) {
	if job.Interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Interval)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
		if r.recorder != nil {
			r.recorder.JobRun(job.Name, err)
		}
		evt := r.logger.Info()
		if err != nil {
			evt = r.logger.Error().Err(err)
		}
		evt.Str("job", job.Name).Dur("duration", time.Since(start)).Msg("job run finished")
	}()

	return job.Run(ctx)
}
