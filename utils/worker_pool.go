package utils

import (
	"sync"
)

// Result is the outcome of one task run by a WorkerPool
type Result[T any] struct {
	Value T
	Err   error
}

// WorkerPool runs submitted tasks on a fixed number of goroutines
type WorkerPool[T any] struct {
	workers   int
	tasks     chan func() (T, error)
	results   chan Result[T]
	waitGroup sync.WaitGroup
	closeOnce sync.Once
}

// NewWorkerPool creates a new worker pool and starts its workers
func NewWorkerPool[T any](workers int, queueSize int) *WorkerPool[T] {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}

	pool := &WorkerPool[T]{
		workers: workers,
		tasks:   make(chan func() (T, error), queueSize),
		results: make(chan Result[T], queueSize),
	}

	for i := 0; i < workers; i++ {
		pool.waitGroup.Add(1)
		go pool.worker()
	}

	// Results is closed once every worker has drained the task queue
	go func() {
		pool.waitGroup.Wait()
		close(pool.results)
	}()

	return pool
}

func (p *WorkerPool[T]) worker() {
	defer p.waitGroup.Done()

	for task := range p.tasks {
		value, err := task()
		p.results <- Result[T]{Value: value, Err: err}
	}
}

// Submit queues a task, blocking while the queue is full.
// Submitting after Close panics.
func (p *WorkerPool[T]) Submit(task func() (T, error)) {
	p.tasks <- task
}

// Close stops accepting tasks. Queued tasks still run.
func (p *WorkerPool[T]) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
}

// Results returns the results channel. It must be drained by the caller.
func (p *WorkerPool[T]) Results() <-chan Result[T] {
	return p.results
}

// Workers returns the number of workers
func (p *WorkerPool[T]) Workers() int {
	return p.workers
}
