package engine

import "github.com/Carmen-Shannon/oxy-view/engine/profiler"

// SchedulerBuilderOption is a functional option for configuring a Scheduler.
// Use the With* functions to create options that are applied directly to the scheduler instance.
type SchedulerBuilderOption func(*schedulerImpl)

// WithQueueSize bounds the render queue. Values < 1 are treated as 1.
//
// Parameters:
//   - n: maximum number of queued tasks
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithQueueSize(n int) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if n < 1 {
			n = 1
		}
		s.queueSize = n
	}
}

// WithTargetFPS sets the initial timer cadence. Values <= 0 start with the timer stopped.
//
// Parameters:
//   - fps: target frames per second (default 30)
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithTargetFPS(fps float64) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if fps < 0 {
			fps = 0
		}
		s.targetFPS = fps
	}
}

// WithProfiler shares a profiler with the scheduler instead of creating one.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - SchedulerBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.profiler = p
	}
}
