package worker

import (
	"context"
	"errors"
	"sync"
)

// Task is one unit of crop analysis submitted to the pool.
type Task func(ctx context.Context) error

// Pool bounds the number of simultaneously in-flight crop analyses. Every
// crop triggers a vision call and usually a nutrition lookup, so unbounded
// fan-out would overwhelm those services. Submit blocks instead of
// dropping: a deep scan must analyze every crop it was given.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 10
	}
	return &Pool{jobs: make(chan Task), quit: make(chan struct{}), n: workers}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					// Task errors are the submitter's concern; crop
					// failures are absorbed inside the task closures.
					_ = task(ctx)
				}
			}
		}()
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit hands the task to a worker, blocking until one is free or the
// context is canceled.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		return nil
	case <-p.quit:
		return errors.New("pool stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}
