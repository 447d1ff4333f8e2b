package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blocker returns a task that holds the render goroutine until release is closed.
func blocker() (task *Task, started chan struct{}, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	task = NewTask("blocker", func() {
		close(started)
		<-release
	})
	return task, started, release
}

func counter() (*Task, *atomic.Int32) {
	n := &atomic.Int32{}
	return NewTask("counter", func() { n.Add(1) }), n
}

// flush waits until every task queued before it has run.
func flush(t *testing.T, s Scheduler) {
	t.Helper()
	done := make(chan struct{})
	require.NoError(t, s.EnqueueWait(context.Background(), NewTask("flush", func() { close(done) })))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("render queue did not drain")
	}
}

func TestEnqueueCollapsesPendingTask(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0))
	defer s.Close()

	block, started, release := blocker()
	require.NoError(t, s.Enqueue(block))
	<-started

	task, n := counter()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Enqueue(task))
	}
	assert.Equal(t, 1, s.Pending())

	close(release)
	flush(t, s)
	assert.Equal(t, int32(1), n.Load())
}

func TestEnqueueWhileRunningSchedulesAnotherRun(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0))
	defer s.Close()

	var runs atomic.Int32
	var task *Task
	task = NewTask("again", func() {
		if runs.Add(1) == 1 {
			assert.NoError(t, s.Enqueue(task))
		}
	})
	require.NoError(t, s.Enqueue(task))
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0), WithQueueSize(1))
	defer s.Close()

	block, started, release := blocker()
	defer close(release)
	require.NoError(t, s.Enqueue(block))
	<-started

	first, _ := counter()
	second, _ := counter()
	require.NoError(t, s.Enqueue(first))
	assert.ErrorIs(t, s.Enqueue(second), ErrQueueFull)
}

func TestEnqueueWaitHonorsContext(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0), WithQueueSize(1))
	defer s.Close()

	block, started, release := blocker()
	require.NoError(t, s.Enqueue(block))
	<-started
	filler, _ := counter()
	require.NoError(t, s.Enqueue(filler))

	task, n := counter()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.EnqueueWait(ctx, task), context.DeadlineExceeded)

	close(release)
	flush(t, s)
	require.NoError(t, s.Enqueue(task), "a cancelled wait leaves the task enqueueable")
	flush(t, s)
	assert.Equal(t, int32(1), n.Load())
}

func TestPanickingTaskIsCountedAndLoopContinues(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0))
	defer s.Close()

	require.NoError(t, s.Enqueue(NewTask("boom", func() { panic("boom") })))
	task, n := counter()
	require.NoError(t, s.Enqueue(task))
	flush(t, s)

	assert.Equal(t, int32(1), n.Load())
	assert.Equal(t, uint64(1), s.Profiler().Stats().Failures)
}

func TestTimerTaskFollowsTargetFPS(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0))
	defer s.Close()

	task, n := counter()
	s.SetTimerTask(task)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load(), "no cadence at 0 fps")

	s.SetTargetFPS(200)
	assert.Equal(t, float64(200), s.TargetFPS())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	s.SetTargetFPS(-1)
	assert.Equal(t, float64(0), s.TargetFPS())
}

func TestClosedSchedulerRejectsWork(t *testing.T) {
	s := NewScheduler(WithTargetFPS(0))
	s.Close()
	s.Close()

	task, _ := counter()
	assert.ErrorIs(t, s.Enqueue(task), ErrClosed)
	assert.ErrorIs(t, s.EnqueueWait(context.Background(), task), ErrClosed)
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}
}
