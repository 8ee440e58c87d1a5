// Package tasks runs named asset jobs one after another.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of work. A job's failure does not stop the queue.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Result struct {
	Name     string
	Err      error
	Duration time.Duration
	Skipped  bool
}

// Queue runs jobs strictly in the order they were added.
type Queue struct {
	jobs   []Job
	logger *zap.Logger
}

func NewQueue(logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{logger: logger}
}

func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) {
	q.jobs = append(q.jobs, Job{Name: name, Run: run})
}

func (q *Queue) Len() int { return len(q.jobs) }

// Run executes every job and returns one result per job plus the joined
// job errors. Once ctx is done the remaining jobs are marked skipped.
func (q *Queue) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(q.jobs))
	var errs []error
	for _, job := range q.jobs {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Name: job.Name, Err: err, Skipped: true})
			continue
		}
		start := time.Now()
		err := runJob(ctx, job)
		res := Result{Name: job.Name, Err: err, Duration: time.Since(start)}
		if err != nil {
			q.logger.Warn("job failed", zap.String("job", job.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
		} else {
			q.logger.Debug("job done", zap.String("job", job.Name), zap.Duration("took", res.Duration))
		}
		results = append(results, res)
	}
	if err := ctx.Err(); err != nil && len(results) > 0 && results[len(results)-1].Skipped {
		errs = append(errs, err)
	}
	q.jobs = nil
	return results, errors.Join(errs...)
}

// runJob turns a panicking job into an error so later jobs still run.
func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Run(ctx)
}
