package notice

import (
	"context"
	"log/slog"
	"sync"
)

// Task is one unit of work executed by the dispatch pool.
type Task func(ctx context.Context) error

// Pool bounds the concurrency of channel delivery so a large fan-out
// cannot overwhelm downstream push and email providers.
type Pool struct {
	workers  int
	tasks    chan Task
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	closed   bool
	closeMux sync.Mutex
}

// NewPool creates a pool bound to ctx with the given worker count.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		ctx:     poolCtx,
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

// Submit queues a task. Tasks submitted after shutdown are dropped; an
// abandoned delivery simply stays un-notified and is safe to retry later.
func (p *Pool) Submit(task Task) {
	select {
	case p.tasks <- task:
	case <-p.ctx.Done():
		slog.Debug("dispatch pool shutting down, task dropped")
	}
}

// Wait closes the queue and blocks until in-flight tasks complete.
func (p *Pool) Wait() {
	p.closeMux.Lock()
	if !p.closed {
		close(p.tasks)
		p.closed = true
	}
	p.closeMux.Unlock()

	p.wg.Wait()
}

// Shutdown cancels outstanding work and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		if err := task(p.ctx); err != nil {
			slog.Warn("dispatch task failed", "error", err)
		}
	}
}
