package pool

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsTasks(t *testing.T) {
	p := New(0)

	var count atomic.Int32
	for range 5 {
		if err := p.Execute(func() { count.Add(1) }); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := count.Load(); got != 5 {
		t.Errorf("ran %d tasks, want 5", got)
	}
}

func TestPool_NilTask(t *testing.T) {
	if err := New(1).Execute(nil); err == nil {
		t.Error("expected error for nil task")
	}
}

func TestPool_ConcurrencyLimit(t *testing.T) {
	const limit = 2
	const total = 5

	p := New(limit)

	var running atomic.Int32
	var maxRunning atomic.Int32
	barrier := make(chan struct{})

	for range total {
		p.Execute(func() {
			cur := running.Add(1)
			for {
				old := maxRunning.Load()
				if cur <= old || maxRunning.CompareAndSwap(old, cur) {
					break
				}
			}
			<-barrier
			running.Add(-1)
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(barrier)

	if err := p.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if peak := maxRunning.Load(); peak > limit {
		t.Errorf("max concurrent was %d, want <= %d", peak, limit)
	}
}

func TestPool_UnlimitedConcurrency(t *testing.T) {
	const total = 10

	p := New(0)

	var running atomic.Int32
	var maxRunning atomic.Int32
	barrier := make(chan struct{})

	for range total {
		p.Execute(func() {
			cur := running.Add(1)
			for {
				old := maxRunning.Load()
				if cur <= old || maxRunning.CompareAndSwap(old, cur) {
					break
				}
			}
			<-barrier
			running.Add(-1)
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(barrier)

	if err := p.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if peak := maxRunning.Load(); peak < int32(total) {
		t.Errorf("expected all %d to run concurrently, peak was %d", total, peak)
	}
}

func TestPool_Shutdown(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	var ran atomic.Bool
	p.Execute(func() {
		<-release
		ran.Store(true)
	})

	p.Shutdown()

	err := p.Execute(func() {
		t.Error("task should not run after shutdown")
	})
	if !errors.Is(err, ErrShutdown) {
		t.Errorf("expected ErrShutdown, got %v", err)
	}

	close(release)
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ran.Load() {
		t.Error("task submitted before shutdown did not run")
	}
}

func TestPool_RecoversPanic(t *testing.T) {
	var logs bytes.Buffer
	p := New(1, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	p.Execute(func() { panic("boom") })

	var after atomic.Bool
	p.Execute(func() { after.Store(true) })

	err := p.Wait()
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected panic value in error, got %v", err)
	}
	if !after.Load() {
		t.Error("pool stopped running tasks after a panic")
	}
	if !strings.Contains(logs.String(), "pool task panicked") {
		t.Errorf("expected panic to be logged, got %q", logs.String())
	}
}
