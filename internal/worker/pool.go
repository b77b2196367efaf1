// Package worker provides the concurrency primitives of the pipeline:
// a pool that runs independent per-record jobs concurrently while
// preserving source order in the collected results, and a per-domain
// rate limiter for the fetch boundary.
package worker

import (
	"context"
	"sort"
	"sync"
)

// Job is one independent unit of work, typically the transformation of
// a single entity. Jobs must not share mutable state.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job.
type Result interface {
	GetError() error
}

type indexedJob struct {
	seq int
	job Job
}

type indexedResult struct {
	seq int
	res Result
}

// Pool executes jobs concurrently with no ordering requirement on the
// processing itself, but Wait returns the results in submission order
// so output row order matches source order.
type Pool struct {
	workers   int
	jobQueue  chan indexedJob
	results   chan indexedResult
	collected []indexedResult
	drained   chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	submitted int
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:  workers,
		jobQueue: make(chan indexedJob, workers*2),
		results:  make(chan indexedResult, workers*2),
		drained:  make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers and the result collector. The collector
// drains results while jobs are still being submitted, so the number
// of submitted jobs is not bounded by the channel buffers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		for ir := range p.results {
			p.collected = append(p.collected, ir)
		}
		close(p.drained)
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			res := ij.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult{seq: ij.seq, res: res}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues one job. Submission order defines result order.
// Not safe for concurrent use with other Submit or Wait calls; the
// pipeline submits from a single goroutine.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- indexedJob{seq: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait blocks until every submitted job has finished and returns the
// results in submission order.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.drained

	sort.Slice(p.collected, func(a, b int) bool {
		return p.collected[a].seq < p.collected[b].seq
	})

	results := make([]Result, 0, len(p.collected))
	for _, ir := range p.collected {
		results = append(results, ir.res)
	}
	return results
}

// Shutdown cancels outstanding work immediately.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
