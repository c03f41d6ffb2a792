// Package dispatch runs best-effort side effects (activity log entries,
// notifications, calendar sync) after a mutation's primary write. Jobs
// are handed to a fixed pool of workers over a buffered channel; a job
// failure is logged and swallowed, never surfaced to the caller.
package dispatch

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"flowboard-api/config"
)

// Job is a single deferred side effect.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner owns the worker pool.
type Runner struct {
	jobs    chan Job
	timeout time.Duration
	handoff time.Duration
	logger  *log.Logger
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner starts the worker pool.
func NewRunner(cfg config.DispatchConfig, logger *log.Logger) *Runner {
	if logger == nil {
		panic("dispatch.NewRunner: logger is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = workers * 2
	}

	r := &Runner{
		jobs:    make(chan Job, buffer),
		timeout: cfg.Timeout,
		handoff: cfg.Handoff,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	logger.Infof("dispatcher started, workers: %d, buffer: %d, timeout: %v", workers, buffer, r.timeout)
	return r
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for job := range r.jobs {
		r.run(job)
	}
}

func (r *Runner) run(job Job) {
	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("side effect panicked, job: %s, panic: %v", job.Name, rec)
		}
	}()
	if err := job.Run(ctx); err != nil {
		r.logger.Errorf("side effect failed, job: %s, err: %v", job.Name, err)
	}
}

// Dispatch hands the job to the pool without blocking the caller beyond
// the configured handoff window. When the buffer is saturated or the
// runner is closed the job runs on its own goroutine instead; it is
// never dropped silently and never delays the response path.
func (r *Runner) Dispatch(job Job) {
	if job.Run == nil {
		return
	}

	if ok, closed := r.trySend(job, nil); ok {
		return
	} else if !closed && r.handoff > 0 {
		timer := time.NewTimer(r.handoff)
		defer timer.Stop()
		if ok, _ := r.trySend(job, timer.C); ok {
			return
		}
	}

	r.logger.Warnf("dispatch buffer saturated, running job inline: %s", job.Name)
	go r.run(job)
}

// trySend attempts a channel handoff. With a nil timer it does not
// block. A send on the closed channel is reported via recover rather
// than racing Close for a flag.
func (r *Runner) trySend(job Job, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			closed = true
		}
	}()

	if timer == nil {
		select {
		case r.jobs <- job:
			return true, false
		default:
			return false, false
		}
	}
	select {
	case r.jobs <- job:
		return true, false
	case <-timer:
		return false, false
	}
}

// Close stops accepting jobs and waits for queued ones to drain.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}
