// Package worker provides the concurrency primitives the engine runs on: a
// bounded task pool gating in-flight link fetches, a per-key mutex
// serializing score recomputation per answer, and a per-domain rate limiter
// for outbound requests.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context)

// Pool executes tasks on a fixed number of goroutines. It is long-lived:
// answers arrive over time and their link verifications all share one
// concurrency cap, so a burst of citations cannot exhaust outbound sockets.
type Pool struct {
	workers   int
	tasks     chan Task
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task(p.ctx)
		}
	}
}

// Submit queues a task, blocking while the queue is full. It returns the
// context error if ctx is cancelled before the task is accepted, or after
// the pool has shut down.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks, cancels the pool context, and waits for
// in-flight tasks to finish.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.tasks)
	})
	p.wg.Wait()
}
