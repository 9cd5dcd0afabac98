// Package worker runs independent jobs on a fixed number of goroutines.
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

// indexed carries the submission position of a job or its result.
type indexed struct {
	seq    int
	job    Job
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order.
type Pool struct {
	workers     int
	submitted   int
	jobQueue    chan indexed
	results     chan indexed
	wg          sync.WaitGroup
	collected   map[int]Result
	collectorWG sync.WaitGroup
	ctx         context.Context
	cancelFunc  context.CancelFunc
	closeOnce   sync.Once
}

// NewPool creates a pool of workers bound to parent. Cancelling parent
// stops the workers as Shutdown does.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexed, workers*2),
		results:    make(chan indexed, workers*2),
		collected:  make(map[int]Result),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool and its result collector. Results are
// drained as they arrive so Submit never waits on an unread result.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.collectorWG.Add(1)
	go func() {
		defer p.collectorWG.Done()
		for item := range p.results {
			p.collected[item.seq] = item.result
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.jobQueue:
			if !ok {
				return
			}
			item.result = item.job.Execute(p.ctx)
			item.job = nil
			select {
			case p.results <- item:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It must not be called concurrently with itself or
// after Wait. Submitting to a stopped pool is a no-op.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- indexed{seq: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait waits for all submitted jobs and returns their results in
// submission order. Jobs dropped by a cancellation leave a nil entry.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)

	p.wg.Wait()
	p.closeResults()
	p.collectorWG.Wait()

	results := make([]Result, p.submitted)
	for seq, r := range p.collected {
		results[seq] = r
	}

	p.cancelFunc()
	return results
}

// Shutdown stops the pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectorWG.Wait()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
