package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Enqueue errors.
var (
	// ErrQueueFull indicates the bounded queue has no room. Clients should
	// retry later.
	ErrQueueFull = errors.New("task queue is full, try again later")

	// ErrRunnerStopped indicates the runner is shutting down and accepts no
	// new work.
	ErrRunnerStopped = errors.New("task runner is stopped")
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 4,
		QueueSize:   64,
	}
}

// Runner manages background task processing: a bounded queue, a fixed worker
// pool, and a registry of per-operation cancel functions.
//
// Every operation gets its own context at enqueue time, derived from the
// runner's base context rather than the submitting HTTP request. Cancel
// works on queued operations too: their context is canceled before a worker
// picks them up, and the executor observes it on its first context check.
type Runner struct {
	taskChan   chan *queuedTask
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	stopped bool
}

type queuedTask struct {
	task   Task
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRunner creates a Runner. Start must be called before tasks execute.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		taskChan:   make(chan *queuedTask, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "task_runner")),
		cancels:    make(map[string]context.CancelFunc),
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"operation_id", task.OperationID(),
				"kind", task.Kind(),
				"error", err)
		},
	}
}

// SetErrorHandler replaces the handler invoked when a task returns an error
// or panics. Must be called before Start.
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Start launches the worker pool.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
}

// Stop cancels all running tasks, rejects further submissions and waits for
// the workers to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()
}

// Enqueue adds a task to the queue without blocking and registers it for
// cancellation. Returns ErrQueueFull when the queue has no room and
// ErrRunnerStopped after Stop.
func (r *Runner) Enqueue(task Task) error {
	opCtx, cancel := context.WithCancel(r.ctx)

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		cancel()
		return ErrRunnerStopped
	}
	r.cancels[task.OperationID()] = cancel
	r.mu.Unlock()

	select {
	case r.taskChan <- &queuedTask{task: task, ctx: opCtx, cancel: cancel}:
		return nil
	default:
		r.unregister(task.OperationID())
		cancel()
		return ErrQueueFull
	}
}

// Cancel requests cancellation of a queued or running operation. Returns
// false if no cancelable operation with that ID is known to the runner.
func (r *Runner) Cancel(operationID string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[operationID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

func (r *Runner) unregister(operationID string) {
	r.mu.Lock()
	delete(r.cancels, operationID)
	r.mu.Unlock()
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case qt, ok := <-r.taskChan:
			if !ok {
				return
			}
			r.runTask(qt, id)
		}
	}
}

// runTask executes a single task. A panic in the task is converted to an
// error and routed through the error handler, so one bad task never takes
// down a worker.
func (r *Runner) runTask(qt *queuedTask, workerID int) {
	task := qt.task
	defer qt.cancel()
	defer r.unregister(task.OperationID())

	logger := r.logger.With(
		"operation_id", task.OperationID(),
		"kind", task.Kind(),
		"worker_id", workerID,
	)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("task panicked", "panic", p)
			r.errHandler(task, fmt.Errorf("task panicked: %v", p))
		}
	}()

	logger.Info("processing task")

	if err := task.Execute(qt.ctx); err != nil {
		r.errHandler(task, err)
		return
	}

	logger.Info("task finished")
}
