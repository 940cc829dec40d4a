// Package batch runs many jobs on a worker pool sized from the CPU and
// memory available to the process.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/amap/amap-dispatch/executor"
	"gitlab.com/amap/amap-dispatch/models"
	"gitlab.com/amap/amap-dispatch/resources"
)

// ErrNoWorkers is returned when the estimated pool size is below one.
var ErrNoWorkers = errors.New("not enough resources to start a single worker")

// Task is the work of a single job.
type Task func(ctx context.Context) error

type Job struct {
	Name string
	Task Task
}

type Result struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// Dispatcher sizes a worker pool once per Run and runs jobs on it.
type Dispatcher struct {
	estimator *resources.Estimator
	executor  executor.Executor
	query     models.ResourceQuery
	logDir    string
}

func NewDispatcher(estimator *resources.Estimator, exec executor.Executor, query models.ResourceQuery, logDir string) *Dispatcher {
	return &Dispatcher{
		estimator: estimator,
		executor:  exec,
		query:     query,
		logDir:    logDir,
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LogPaths returns fresh stdout and stderr file paths for a job. Every call
// returns different paths so concurrent commands never share files.
func (d *Dispatcher) LogPaths(name string) (logPath, errorPath string) {
	base := fmt.Sprintf("%s-%s", unsafeName.ReplaceAllString(name, "_"), uuid.NewString())
	return filepath.Join(d.logDir, base+".log"), filepath.Join(d.logDir, base+".err")
}

// CommandJob wraps a shell command as a job with its own log files.
func (d *Dispatcher) CommandJob(name, command string) Job {
	logPath, errorPath := d.LogPaths(name)
	return Job{
		Name: name,
		Task: func(ctx context.Context) error {
			return d.executor.RunSafely(ctx, command, logPath, errorPath)
		},
	}
}

// Workers estimates the pool size. A result below one is an error.
func (d *Dispatcher) Workers() (int, error) {
	n, err := d.estimator.EstimateWorkerCount(d.query)
	if err != nil {
		return 0, fmt.Errorf("unable to estimate worker count: %w", err)
	}
	if n < 1 {
		return n, fmt.Errorf("%w (estimated %d)", ErrNoWorkers, n)
	}
	return n, nil
}

// Run executes jobs on at most Workers() goroutines. Every job runs even
// when others fail; results keep the order of jobs and the returned error
// combines the failures.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	n, err := d.Workers()
	if err != nil {
		return nil, err
	}
	if n > len(jobs) {
		n = len(jobs)
	}
	zlog.Info("starting worker pool", zap.Int("workers", n), zap.Int("jobs", len(jobs)))

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(n, 1))

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			start := time.Now()
			err := job.Task(ctx)
			results[i] = Result{Job: job, Err: err, Duration: time.Since(start)}
			if err != nil {
				zlog.Error("job failed", zap.String("job", job.Name), zap.Error(err))
			} else {
				zlog.Debug("job finished", zap.String("job", job.Name), zap.Duration("took", results[i].Duration))
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Job.Name, r.Err))
		}
	}
	return results, errs
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
