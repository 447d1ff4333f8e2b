package engine

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
)

var (
	// ErrQueueFull is returned by Enqueue when the render queue has no room.
	// Callers may ignore it: a redraw is already due.
	ErrQueueFull = errors.New("engine: render queue full")

	// ErrClosed is returned once the scheduler has been closed.
	ErrClosed = errors.New("engine: scheduler closed")
)

const (
	defaultQueueSize = 64
	defaultTargetFPS = 30
)

// Task is a unit of work run on the render goroutine. Tasks are identified by
// pointer: a task that is already queued is not queued twice.
type Task struct {
	// Name identifies the task in logs.
	Name string
	// Run is called on the render goroutine.
	Run func()
}

// NewTask creates a Task.
//
// Parameters:
//   - name: the name used in logs
//   - run: the work to do on the render goroutine
//
// Returns:
//   - *Task: the task
func NewTask(name string, run func()) *Task {
	return &Task{Name: name, Run: run}
}

// schedulerImpl implements the Scheduler interface.
// Coordinates the timer and render goroutines.
type schedulerImpl struct {
	mu *sync.Mutex

	queueSize int
	queue     chan *Task
	pending   map[*Task]bool
	closed    bool

	tickRateChannel chan time.Duration // Channel for live cadence updates
	targetFPS       float64
	timerTask       *Task

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	wg          sync.WaitGroup

	profiler *profiler.Profiler
}

// Scheduler serializes all graphics work onto one render goroutine while
// accepting requests from any goroutine.
type Scheduler interface {
	// Enqueue appends t to the render queue. A task that is already pending is
	// not duplicated. A task is removed from the pending set just before it
	// runs, so enqueueing it while it runs schedules another run.
	//
	// Parameters:
	//   - t: the task
	//
	// Returns:
	//   - error: ErrQueueFull if there is no room, ErrClosed after Close
	Enqueue(t *Task) error

	// EnqueueWait is Enqueue that blocks until there is room in the queue.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//   - t: the task
	//
	// Returns:
	//   - error: the context's error, or ErrClosed
	EnqueueWait(ctx context.Context, t *Task) error

	// SetTimerTask sets the task the timer enqueues at the target frame rate.
	// A nil task pauses the cadence.
	//
	// Parameters:
	//   - t: the task, or nil
	SetTimerTask(t *Task)

	// SetTargetFPS changes the timer cadence. It takes effect immediately.
	//
	// Parameters:
	//   - fps: frames per second; <= 0 stops the timer (on-demand redraw only)
	SetTargetFPS(fps float64)

	// TargetFPS returns the timer cadence.
	//
	// Returns:
	//   - float64: frames per second, 0 if the timer is stopped
	TargetFPS() float64

	// Pending returns the number of queued tasks.
	//
	// Returns:
	//   - int: queued task count
	Pending() int

	// Profiler returns the profiler that counts task failures.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// Done returns a channel closed when the scheduler shuts down.
	//
	// Returns:
	//   - <-chan struct{}: the channel
	Done() <-chan struct{}

	// Close stops the timer and render goroutines and waits for them to exit.
	// Queued tasks that have not started are dropped. Safe to call multiple times.
	Close()
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a Scheduler and starts its render and timer goroutines.
//
// Parameters:
//   - options: functional options for scheduler configuration
//
// Returns:
//   - Scheduler: the running scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &schedulerImpl{
		mu:              &sync.Mutex{},
		pending:         make(map[*Task]bool),
		tickRateChannel: make(chan time.Duration, 1),
		targetFPS:       defaultTargetFPS,
		quitChannel:     make(chan struct{}),
		queueSize:       defaultQueueSize,
	}
	for _, opt := range options {
		opt(s)
	}
	s.queue = make(chan *Task, s.queueSize)
	if s.profiler == nil {
		s.profiler = profiler.NewProfiler()
	}

	s.wg.Add(2)
	go s.handleRender()
	go s.handleTimer(frameInterval(s.targetFPS))
	return s
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (s *schedulerImpl) Enqueue(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.pending[t] {
		return nil
	}
	select {
	case s.queue <- t:
		s.pending[t] = true
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *schedulerImpl) EnqueueWait(ctx context.Context, t *Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.pending[t] {
		s.mu.Unlock()
		return nil
	}
	// Mark first so a concurrent Enqueue of t is a no-op while we wait for room.
	s.pending[t] = true
	s.mu.Unlock()

	select {
	case s.queue <- t:
		return nil
	case <-ctx.Done():
		s.unmark(t)
		return ctx.Err()
	case <-s.quitChannel:
		s.unmark(t)
		return ErrClosed
	}
}

func (s *schedulerImpl) unmark(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, t)
}

func (s *schedulerImpl) SetTimerTask(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerTask = t
}

func (s *schedulerImpl) SetTargetFPS(fps float64) {
	if fps < 0 {
		fps = 0
	}
	s.mu.Lock()
	s.targetFPS = fps
	s.mu.Unlock()

	// Non-blocking send - if a change is already pending, replace it
	newRate := frameInterval(fps)
	select {
	case s.tickRateChannel <- newRate:
	default:
		select {
		case <-s.tickRateChannel:
		default:
		}
		select {
		case s.tickRateChannel <- newRate:
		default:
		}
	}
}

func (s *schedulerImpl) TargetFPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetFPS
}

func (s *schedulerImpl) Pending() int {
	return len(s.queue)
}

func (s *schedulerImpl) Profiler() *profiler.Profiler {
	return s.profiler
}

func (s *schedulerImpl) Done() <-chan struct{} {
	return s.quitChannel
}

func (s *schedulerImpl) Close() {
	s.quitOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quitChannel)
	})
	s.wg.Wait()
}

// handleRender drains the queue in arrival order on a goroutine locked to its
// OS thread. Exits when the quit channel is closed.
func (s *schedulerImpl) handleRender() {
	defer s.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-s.quitChannel:
			return
		case t := <-s.queue:
			s.unmark(t)
			s.run(t)
		}
	}
}

// run executes t, recovering a panic so one failed frame does not stop the
// loop. The previous image stays on screen.
func (s *schedulerImpl) run(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] task %q failed: %v", t.Name, r)
			s.profiler.RecordFailure()
		}
	}()
	if t.Run != nil {
		t.Run()
	}
}

// handleTimer enqueues the timer task at the target frame rate and listens for
// cadence changes via tickRateChannel. A zero interval parks the ticker.
func (s *schedulerImpl) handleTimer(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	if interval > 0 {
		ticker.Reset(interval)
	} else {
		ticker.Stop()
	}

	for {
		select {
		case <-s.quitChannel:
			return
		case <-ticker.C:
			s.mu.Lock()
			t := s.timerTask
			s.mu.Unlock()
			if t != nil {
				// full queue: a frame is already due
				_ = s.Enqueue(t)
			}
		case newRate := <-s.tickRateChannel:
			if newRate > 0 {
				ticker.Reset(newRate)
			} else {
				ticker.Stop()
			}
		}
	}
}
