package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"flowboard-api/config"
)

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

func TestRunnerExecutesDispatchedJobs(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 2, Buffer: 8}, testLogger())

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		r.Dispatch(Job{
			Name: "count",
			Run: func(context.Context) error {
				defer wg.Done()
				atomic.AddInt32(&ran, 1)
				return nil
			},
		})
	}
	wg.Wait()
	r.Close()

	if got := atomic.LoadInt32(&ran); got != 20 {
		t.Fatalf("expected 20 jobs to run, got %d", got)
	}
}

func TestRunnerSwallowsJobFailures(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 1, Buffer: 1}, testLogger())
	defer r.Close()

	done := make(chan struct{})
	r.Dispatch(Job{
		Name: "fails",
		Run: func(context.Context) error {
			close(done)
			return errors.New("boom")
		},
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("failing job never ran")
	}
}

func TestRunnerRecoversFromPanickingJob(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 1, Buffer: 1}, testLogger())
	defer r.Close()

	panicked := make(chan struct{})
	r.Dispatch(Job{
		Name: "panics",
		Run: func(context.Context) error {
			close(panicked)
			panic("boom")
		},
	})
	<-panicked

	// The worker survived; the next job still runs.
	done := make(chan struct{})
	r.Dispatch(Job{
		Name: "after",
		Run: func(context.Context) error {
			close(done)
			return nil
		},
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
}

func TestRunnerAppliesTimeoutContext(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 1, Buffer: 1, Timeout: 10 * time.Millisecond}, testLogger())
	defer r.Close()

	got := make(chan error, 1)
	r.Dispatch(Job{
		Name: "slow",
		Run: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				got <- ctx.Err()
			case <-time.After(time.Second):
				got <- nil
			}
			return nil
		},
	})

	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never observed its context")
	}
}

func TestDispatchAfterCloseRunsInline(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 1, Buffer: 1}, testLogger())
	r.Close()

	done := make(chan struct{})
	r.Dispatch(Job{
		Name: "late",
		Run: func(context.Context) error {
			close(done)
			return nil
		},
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job dispatched after close was dropped")
	}
}

func TestSaturatedBufferFallsBackToInline(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 1, Buffer: 1, Handoff: time.Millisecond}, testLogger())
	defer r.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	// Occupy the single worker, then fill the one-slot buffer.
	r.Dispatch(Job{Name: "occupy", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}})
	<-started
	r.Dispatch(Job{Name: "queued", Run: func(context.Context) error {
		<-release
		return nil
	}})

	done := make(chan struct{})
	r.Dispatch(Job{
		Name: "overflow",
		Run: func(context.Context) error {
			close(done)
			return nil
		},
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("overflow job never ran")
	}
	close(release)
}

func TestCloseIsIdempotent(t *testing.T) {
	r := NewRunner(config.DispatchConfig{Workers: 2, Buffer: 2}, testLogger())
	r.Close()
	r.Close()
}
