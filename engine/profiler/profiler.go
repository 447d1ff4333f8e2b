package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Stats is a snapshot of the profiler's cumulative counters.
type Stats struct {
	// Frames is the number of frames recorded since creation.
	Frames uint64
	// Failures is the number of render tasks that panicked since creation.
	Failures uint64
	// LastFrame is the duration of the most recent frame.
	LastFrame time.Duration
}

// Profiler tracks frame timing, render failures and memory statistics.
// Outputs stats to the log at a configurable interval when logging is enabled.
// It is safe for concurrent use: frames are recorded on the render goroutine
// while failures and snapshots may come from anywhere.
type Profiler struct {
	mu *sync.Mutex

	logging        bool
	updateInterval time.Duration
	clock          func() time.Time

	// per-interval counters, reset after each log line
	frameCount     int
	frameTotal     time.Duration
	frameMax       time.Duration
	failureCount   int
	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stats Stats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second; logging starts disabled.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		mu:             &sync.Mutex{},
		updateInterval: time.Second,
		clock:          time.Now,
		lastTime:       time.Now(),
	}
}

// SetLogging enables or disables the periodic log line. Counters are kept either way.
//
// Parameters:
//   - enabled: true to log stats every interval
func (p *Profiler) SetLogging(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logging = enabled
}

// SetUpdateInterval sets how often stats are logged. Values <= 0 are ignored.
//
// Parameters:
//   - d: the interval
func (p *Profiler) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// RecordFailure counts a render task that failed.
func (p *Profiler) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failureCount++
	p.stats.Failures++
}

// Stats returns the cumulative counters.
//
// Returns:
//   - Stats: the snapshot
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// RecordFrame should be called once per rendered frame with the time it took.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, frame time, failures, heap usage, allocation rate, GC count/pause times.
//
// Parameters:
//   - d: the frame duration
//
// Returns:
//   - bool: true if stats were logged this frame, false otherwise
func (p *Profiler) RecordFrame(d time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	p.frameTotal += d
	if d > p.frameMax {
		p.frameMax = d
	}
	p.stats.Frames++
	p.stats.LastFrame = d

	currentTime := p.clock()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	logged := false
	if p.logging {
		p.logStats(elapsed)
		logged = true
	}

	p.frameCount = 0
	p.frameTotal = 0
	p.frameMax = 0
	p.failureCount = 0
	p.lastTime = currentTime
	return logged
}

func (p *Profiler) logStats(elapsed time.Duration) {
	fps := float64(p.frameCount) / elapsed.Seconds()
	avgMs := float64(p.frameTotal) / float64(p.frameCount) / float64(time.Millisecond)
	maxMs := float64(p.frameMax) / float64(time.Millisecond)

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (tracks churn)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
			maxPauseUs = pause
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Frame: %.2f ms (max %.2f ms) | Failures: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		fps, avgMs, maxMs, p.failureCount, allocMB, allocRateMB, gcCount, maxPauseUs)

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
