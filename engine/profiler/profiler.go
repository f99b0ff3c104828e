// Package profiler reports frame rate and memory statistics while the game loop runs.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"go.uber.org/zap"
)

// Profiler tracks frame rate and memory statistics and logs them at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         *zap.Logger
	now            func() time.Time
}

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger statistics are written to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(l *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("profiler")
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. It logs FPS, heap usage, allocation rate, GC pauses and
// process memory once the interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Float64("heapMB", allocMB),
		zap.Float64("allocRateMBps", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Duration("lastPause", lastPause),
		zap.Duration("maxPause", maxPause),
		zap.Float64("sysMB", sysMB),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
