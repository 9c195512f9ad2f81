// Package worker runs document analyses concurrently and rate limits calls
// to external providers.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queued struct {
	idx int
	job Job
}

// Pool runs jobs on a fixed number of goroutines. Results are returned in
// submission order.
type Pool struct {
	workers  int
	jobQueue chan queued
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	// queueMu is held for reading across every send on jobQueue and for
	// writing when Wait closes it
	queueMu sync.RWMutex
	closed  bool

	mu      sync.Mutex
	results []Result
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops workers after
// their current job.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:  workers,
		jobQueue: make(chan queued, workers*2),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers
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
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[q.idx] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It blocks while the queue is full and reports false
// if the pool was cancelled or already waited on. It is safe to call
// concurrently with Wait
func (p *Pool) Submit(job Job) bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()
	if p.closed {
		return false
	}

	p.mu.Lock()
	idx := len(p.results)
	p.results = append(p.results, nil)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- queued{idx: idx, job: job}:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns one entry per
// submitted job. Jobs that never ran have a nil entry.
func (p *Pool) Wait() []Result {
	p.queueMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	p.queueMu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Result(nil), p.results...)
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
