// Package workerpool runs blocking jobs off the dispatcher goroutine with a
// fixed concurrency bound. Submitting never blocks the caller.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dan1650/plates-bot/internal/observability"
)

// Job is a unit of work. It receives the context given to Submit.
type Job func(ctx context.Context)

// Pool runs at most size jobs at once.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	wg     sync.WaitGroup
	logger *observability.Logger
}

// New creates a pool. A non-positive size defaults to 8.
func New(size int, logger *observability.Logger) *Pool {
	if size <= 0 {
		size = 8
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		logger: logger,
	}
}

// Submit queues job and returns without waiting for a free slot. The job
// starts once one of size slots frees up; if ctx ends first it is dropped and
// logged. Submit only fails when ctx is already done. A panicking job is
// logged and does not affect the caller or other jobs.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.logger.Warn().Err(err).Msg("Job dropped while waiting for a worker")
			return
		}
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().
					Str("panic", fmt.Sprint(r)).
					Str("stack", string(debug.Stack())).
					Msg("Worker job panicked")
			}
		}()
		job(ctx)
	}()
	return nil
}

// Wait blocks until every submitted job has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Size returns the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}
