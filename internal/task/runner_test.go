package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverity/docvault-api/internal/operation"
)

type mockTask struct {
	id      string
	kind    operation.Kind
	execute func(ctx context.Context) error
}

func (t *mockTask) OperationID() string  { return t.id }
func (t *mockTask) Kind() operation.Kind { return t.kind }
func (t *mockTask) Execute(ctx context.Context) error {
	if t.execute == nil {
		return nil
	}
	return t.execute(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerExecutesEnqueuedTasks(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 8}, discardLogger())
	r.Start()
	defer r.Stop()

	done := make(chan string, 3)
	for _, id := range []string{"a", "b", "c"} {
		err := r.Enqueue(&mockTask{id: id, kind: operation.KindImport, execute: func(_ context.Context) error {
			done <- id
			return nil
		}})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks to run")
		}
	}
	assert.Len(t, seen, 3)
}

func TestRunnerQueueFull(t *testing.T) {
	// No workers started, so nothing drains the queue.
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())

	require.NoError(t, r.Enqueue(&mockTask{id: "a", kind: operation.KindImport}))
	err := r.Enqueue(&mockTask{id: "b", kind: operation.KindImport})
	assert.ErrorIs(t, err, ErrQueueFull)

	// The rejected task must not linger in the cancel registry.
	assert.False(t, r.Cancel("b"))
	assert.True(t, r.Cancel("a"))
}

func TestRunnerRejectsAfterStop(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())
	r.Start()
	r.Stop()

	err := r.Enqueue(&mockTask{id: "a", kind: operation.KindImport})
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerCancelRunningTask(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())
	r.Start()
	defer r.Stop()

	started := make(chan struct{})
	finished := make(chan error, 1)
	err := r.Enqueue(&mockTask{id: "a", kind: operation.KindComparison, execute: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return nil
	}})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}

	assert.True(t, r.Cancel("a"))

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed cancellation")
	}
}

func TestRunnerCancelQueuedTask(t *testing.T) {
	// Workers not started yet, so the task is cancelable while queued.
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, discardLogger())

	got := make(chan error, 1)
	err := r.Enqueue(&mockTask{id: "a", kind: operation.KindImport, execute: func(ctx context.Context) error {
		got <- ctx.Err()
		return nil
	}})
	require.NoError(t, err)

	assert.True(t, r.Cancel("a"))

	r.Start()
	defer r.Stop()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled, "queued task must start with an already canceled context")
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestRunnerCancelDoesNotAffectOtherTasks(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 4}, discardLogger())
	r.Start()
	defer r.Stop()

	aStarted := make(chan struct{})
	aResult := make(chan error, 1)
	require.NoError(t, r.Enqueue(&mockTask{id: "a", kind: operation.KindImport, execute: func(ctx context.Context) error {
		close(aStarted)
		<-ctx.Done()
		aResult <- ctx.Err()
		return nil
	}}))

	bStarted := make(chan struct{})
	bRelease := make(chan struct{})
	bResult := make(chan error, 1)
	require.NoError(t, r.Enqueue(&mockTask{id: "b", kind: operation.KindComparison, execute: func(ctx context.Context) error {
		close(bStarted)
		<-bRelease
		bResult <- ctx.Err()
		return nil
	}}))

	for _, started := range []chan struct{}{aStarted, bStarted} {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("task never started")
		}
	}

	require.True(t, r.Cancel("a"))

	select {
	case err := <-aResult:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled task never observed cancellation")
	}

	// The sibling operation keeps its own live context and finishes on its
	// own terms.
	close(bRelease)
	select {
	case err := <-bResult:
		assert.NoError(t, err, "cancelling one operation must not touch another's context")
	case <-time.After(2 * time.Second):
		t.Fatal("surviving task never finished")
	}
}

func TestRunnerCancelUnknownOperation(t *testing.T) {
	r := NewRunner(RunnerConfig{}, discardLogger())
	assert.False(t, r.Cancel("nope"))
}

func TestRunnerPanicRecovery(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 2}, discardLogger())

	var mu sync.Mutex
	var handled []error
	r.SetErrorHandler(func(_ Task, err error) {
		mu.Lock()
		handled = append(handled, err)
		mu.Unlock()
	})
	r.Start()
	defer r.Stop()

	done := make(chan struct{})
	require.NoError(t, r.Enqueue(&mockTask{id: "boom", kind: operation.KindImport, execute: func(_ context.Context) error {
		panic("something broke")
	}}))
	// A second task on the same worker proves the pool survived the panic.
	require.NoError(t, r.Enqueue(&mockTask{id: "after", kind: operation.KindImport, execute: func(_ context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 1)
	assert.Contains(t, handled[0].Error(), "something broke")
}

func TestRunnerErrorHandlerReceivesTaskError(t *testing.T) {
	r := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())

	taskErr := errors.New("execution failed")
	handled := make(chan error, 1)
	r.SetErrorHandler(func(_ Task, err error) {
		handled <- err
	})
	r.Start()
	defer r.Stop()

	require.NoError(t, r.Enqueue(&mockTask{id: "a", kind: operation.KindImport, execute: func(_ context.Context) error {
		return taskErr
	}}))

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, taskErr)
	case <-time.After(2 * time.Second):
		t.Fatal("error handler never invoked")
	}
}
