package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/addrconform/internal/core"
	"github.com/JonMunkholm/addrconform/internal/logging"
	"github.com/JonMunkholm/addrconform/internal/store"
)

// Publisher uploads a finished output and returns its object key.
type Publisher interface {
	PutFile(ctx context.Context, runID, name, localPath string) (string, error)
}

// Job is one source to conform.
type Job struct {
	// Name identifies the source in run history, usually the definition file name.
	Name       string
	Definition core.SourceDefinition
	// Paths are the downloaded files, compressed or not.
	Paths []string
	// InputDir, when set, is removed once the run finishes.
	InputDir string
}

// Options configures a Runner. Store and Conformer are required.
type Options struct {
	Store     store.RunStore
	Conformer *core.Conformer
	Limiter   *Limiter
	Publisher Publisher
	Workdir   string
	Timeout   time.Duration
}

// Runner conforms independent sources concurrently and records every
// attempt in the run store.
type Runner struct {
	store     store.RunStore
	conformer *core.Conformer
	limiter   *Limiter
	publisher Publisher
	workdir   string
	timeout   time.Duration

	wg sync.WaitGroup
}

// New creates a Runner. A nil Limiter gets the defaults.
func New(opts Options) (*Runner, error) {
	if opts.Store == nil {
		return nil, errors.New("runner: store is required")
	}
	if opts.Conformer == nil {
		return nil, errors.New("runner: conformer is required")
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(DefaultMaxConcurrent, DefaultMaxWaitTime)
	}
	if opts.Workdir == "" {
		opts.Workdir = os.TempDir()
	}
	if err := os.MkdirAll(opts.Workdir, 0o755); err != nil {
		return nil, fmt.Errorf("runner: create workdir: %w", err)
	}

	return &Runner{
		store:     opts.Store,
		conformer: opts.Conformer,
		limiter:   opts.Limiter,
		publisher: opts.Publisher,
		workdir:   opts.Workdir,
		timeout:   opts.Timeout,
	}, nil
}

// Limiter exposes the concurrency limiter for health reporting.
func (r *Runner) Limiter() *Limiter {
	return r.limiter
}

// Workdir is the root under which each run gets its own directory.
func (r *Runner) Workdir() string {
	return r.workdir
}

// Run conforms job synchronously. The returned run is always recorded,
// even when err is non-nil; soft failures end as StatusSkipped.
func (r *Runner) Run(ctx context.Context, job Job) (*store.Run, error) {
	run, err := r.create(ctx, job)
	if err != nil {
		return nil, err
	}
	return run, r.execute(ctx, run, job)
}

// Submit records job as pending and conforms it in the background.
// Use Wait to block until submitted runs finish.
func (r *Runner) Submit(ctx context.Context, job Job) (*store.Run, error) {
	run, err := r.create(ctx, job)
	if err != nil {
		return nil, err
	}

	snapshot := *run
	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.execute(bg, run, job)
	}()
	return &snapshot, nil
}

// Wait blocks until every submitted run has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAll conforms jobs concurrently, at most the limiter's capacity at a
// time. Soft failures are skipped; the other failures are joined into the
// returned error. Runs are returned in job order.
func (r *Runner) RunAll(ctx context.Context, jobs []Job) ([]*store.Run, error) {
	runs := make([]*store.Run, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.limiter.MaxConcurrent())
	for i, job := range jobs {
		g.Go(func() error {
			run, err := r.Run(ctx, job)
			runs[i] = run
			if err != nil && !core.IsSoftFailure(err) {
				errs[i] = fmt.Errorf("%s: %w", job.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return runs, errors.Join(errs...)
}

func (r *Runner) create(ctx context.Context, job Job) (*store.Run, error) {
	run := &store.Run{
		ID:        uuid.New().String(),
		Source:    job.Name,
		Status:    store.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if spec := job.Definition.Conform; spec != nil {
		run.SourceType = string(spec.Type)
	}
	if err := r.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

func (r *Runner) execute(ctx context.Context, run *store.Run, job Job) error {
	ctx = logging.WithRunID(ctx, run.ID)
	log := logging.WithFields(ctx, "source", job.Name)

	if err := r.limiter.Acquire(ctx); err != nil {
		removeInput(job)
		return r.finish(ctx, run, err)
	}

	run.Status = store.StatusRunning
	if err := r.store.Update(ctx, run); err != nil {
		log.Warn("failed to record run start", "error", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type outcome struct {
		result core.ConformResult
		err    error
	}
	done := make(chan outcome)
	go func() {
		// The conversion owns the slot, the upload and its own output until
		// it really stops, even if the caller has given up on it.
		defer r.limiter.Release()
		res, err := r.convert(run.ID, job)
		removeInput(job)

		select {
		case done <- outcome{res, err}:
		case <-ctx.Done():
			if rerr := os.RemoveAll(r.runDir(run.ID)); rerr != nil {
				log.Warn("failed to remove abandoned run output", "error", rerr)
			}
			log.Debug("abandoned conversion stopped", "error", err)
		}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}
	if out.err != nil {
		return r.finish(ctx, run, out.err)
	}

	run.Rows = out.result.Rows
	run.OutputPath = out.result.Path
	run.SourceType = string(out.result.Type)

	if r.publisher != nil {
		key, err := r.publisher.PutFile(ctx, run.ID, filepath.Base(out.result.Path), out.result.Path)
		if err != nil {
			return r.finish(ctx, run, fmt.Errorf("publish: %w", err))
		}
		run.ObjectKey = key
	}
	return r.finish(ctx, run, nil)
}

func (r *Runner) runDir(runID string) string {
	return filepath.Join(r.workdir, runID)
}

func removeInput(job Job) {
	if job.InputDir != "" {
		_ = os.RemoveAll(job.InputDir)
	}
}

func (r *Runner) convert(runID string, job Job) (core.ConformResult, error) {
	workdir := r.runDir(runID)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return core.ConformResult{}, fmt.Errorf("create run workdir: %w", err)
	}

	paths, err := core.PrepareSource(job.Definition, job.Paths, workdir)
	if err != nil {
		return core.ConformResult{}, err
	}
	return r.conformer.ConvertSource(job.Definition, paths, workdir)
}

// finish records the terminal state of run and returns err unchanged.
func (r *Runner) finish(ctx context.Context, run *store.Run, err error) error {
	log := logging.FromContext(ctx)
	run.FinishedAt = time.Now().UTC()

	switch {
	case err == nil:
		run.Status = store.StatusSucceeded
		log.Info("run succeeded", "source", run.Source, "rows", run.Rows, "duration", run.Duration())
	case core.IsSoftFailure(err):
		run.Status = store.StatusSkipped
		log.Warn("run skipped", "source", run.Source, "reason", err)
	default:
		run.Status = store.StatusFailed
		log.Error("run failed", "source", run.Source, "error", err)
	}
	if err != nil {
		run.Error = err.Error()
		run.ErrorCode = core.MapError(err).Code
	}

	// Record the outcome even if the run's context was cancelled.
	if uerr := r.store.Update(context.WithoutCancel(ctx), run); uerr != nil {
		log.Error("failed to record run result", "error", uerr)
	}
	return err
}
