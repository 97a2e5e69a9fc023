package usecase

import (
	"context"
	"errors"
	"sync"

	applogger "FinCorr/pkg/logger"
)

// ErrRunnerClosed is returned for tasks submitted after Close.
var ErrRunnerClosed = errors.New("runner closed")

// Task is a unit of pipeline work run on the runner's goroutine.
type Task func(ctx context.Context) (any, error)

// TaskResult carries a task's return values back to the submitter.
type TaskResult struct {
	Value any
	Err   error
}

type job struct {
	name string
	task Task
	done chan TaskResult
}

// Runner executes submitted tasks one at a time on a single worker goroutine,
// so at most one batch job touches the store at any moment.
type Runner struct {
	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	l      *applogger.Logger
}

// NewRunner starts the worker. queueSize bounds pending tasks.
func NewRunner(queueSize int, l *applogger.Logger) *Runner {
	if queueSize <= 0 {
		queueSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		jobs:   make(chan job, queueSize),
		ctx:    ctx,
		cancel: cancel,
		l:      l,
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Submit queues task under name. The returned channel receives exactly one result.
func (r *Runner) Submit(name string, task Task) <-chan TaskResult {
	done := make(chan TaskResult, 1)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		done <- TaskResult{Err: ErrRunnerClosed}
		return done
	}

	select {
	case r.jobs <- job{name: name, task: task, done: done}:
	case <-r.ctx.Done():
		done <- TaskResult{Err: ErrRunnerClosed}
	}
	return done
}

// Close cancels the running task, fails pending ones and waits for the worker.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancel()
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		if err := r.ctx.Err(); err != nil {
			j.done <- TaskResult{Err: ErrRunnerClosed}
			continue
		}
		j.done <- r.run(j)
	}
}

func (r *Runner) run(j job) (res TaskResult) {
	defer func() {
		if p := recover(); p != nil {
			if r.l != nil {
				r.l.Error("task panicked", applogger.String("task", j.name), applogger.Any("panic", p))
			}
			res = TaskResult{Err: errors.New("task panicked")}
		}
	}()

	v, err := j.task(r.ctx)
	if err != nil && r.l != nil {
		r.l.Warn("task failed", applogger.String("task", j.name), applogger.Error(err))
	}
	return TaskResult{Value: v, Err: err}
}
