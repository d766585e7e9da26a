package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	ErrShutdown = errors.New("pool is shut down")
	ErrPanic    = errors.New("task panicked")
)

// Pool runs submitted tasks on their own goroutines with an optional
// limit on how many run at once.
type Pool struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	logger   *slog.Logger
	errs     []error
}

// Option configures a [Pool].
type Option func(*Pool)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Pool running at most maxConcurrent tasks at a time.
// If maxConcurrent <= 0, concurrency is unlimited.
func New(maxConcurrent int, optFns ...Option) *Pool {
	p := &Pool{logger: slog.Default()}
	if maxConcurrent > 0 {
		p.sem = make(chan struct{}, maxConcurrent)
	}
	for _, opt := range optFns {
		opt(p)
	}

	return p
}

// Execute schedules task. It returns [ErrShutdown] without running
// task once the pool has been shut down.
func (p *Pool) Execute(task func()) error {
	if task == nil {
		return errors.New("task must not be nil")
	}
	if p.shutdown.Load() {
		return ErrShutdown
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			p.sem <- struct{}{}
			defer func() {
				<-p.sem
			}()
		}

		p.run(task)
	}()

	return nil
}

// Wait blocks until every submitted task has returned. It reports the
// panics recovered since the pool was created, joined.
func (p *Pool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	return errors.Join(p.errs...)
}

// Shutdown rejects further tasks. Tasks already submitted still run.
func (p *Pool) Shutdown() {
	p.shutdown.Store(true)
}

// run executes task, converting a panic into a recorded error.
func (p *Pool) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			trace := debug.Stack()
			err := fmt.Errorf("%w: %v", ErrPanic, rec)
			p.logger.Error("pool task panicked", "error", err, "trace", string(trace))
			p.recordErr(err)
		}
	}()

	task()
}

// recordErr appends err under the mutex.
func (p *Pool) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}
