package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options tune a GoroutineMonitor. Zero values take the defaults.
type Options struct {
	CheckInterval  time.Duration
	AlertThreshold int
	AlertCooldown  time.Duration
}

func (o Options) withDefaults() Options {
	if o.CheckInterval <= 0 {
		o.CheckInterval = 30 * time.Second
	}
	if o.AlertThreshold <= 0 {
		o.AlertThreshold = 1000
	}
	if o.AlertCooldown <= 0 {
		o.AlertCooldown = 5 * time.Minute
	}
	return o
}

// GoroutineMonitor samples the process goroutine count and the counts that
// components such as the game manager report for themselves.
type GoroutineMonitor struct {
	mu              sync.RWMutex
	baseline        int
	current         int
	peak            int
	lastAlert       time.Time
	componentCounts map[string]int

	opts     Options
	logger   zerolog.Logger
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewGoroutineMonitor creates a monitor with the current goroutine count as
// its baseline
func NewGoroutineMonitor(opts Options, logger zerolog.Logger) *GoroutineMonitor {
	baseline := runtime.NumGoroutine()
	return &GoroutineMonitor{
		baseline:        baseline,
		current:         baseline,
		peak:            baseline,
		componentCounts: make(map[string]int),
		opts:            opts.withDefaults(),
		logger:          logger.With().Str("component", "GoroutineMonitor").Logger(),
		stopChan:        make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start begins monitoring goroutines
func (gm *GoroutineMonitor) Start() {
	go gm.monitor()
	gm.logger.Info().
		Int("baseline", gm.baseline).
		Dur("interval", gm.opts.CheckInterval).
		Msg("Started goroutine monitoring")
}

// Stop stops the monitor and waits for its loop to exit. It is safe to
// call more than once.
func (gm *GoroutineMonitor) Stop() {
	gm.stopOnce.Do(func() {
		close(gm.stopChan)
		<-gm.done
	})
}

func (gm *GoroutineMonitor) monitor() {
	defer close(gm.done)

	ticker := time.NewTicker(gm.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.check(runtime.NumGoroutine(), time.Now())
		case <-gm.stopChan:
			return
		}
	}
}

// check records a sample and warns when the count crosses the threshold
func (gm *GoroutineMonitor) check(current int, now time.Time) {
	gm.mu.Lock()
	gm.current = current
	if current > gm.peak {
		gm.peak = current
	}
	growthRate := 0.0
	if gm.baseline > 0 {
		growthRate = float64(current-gm.baseline) / float64(gm.baseline) * 100
	}
	shouldAlert := current > gm.opts.AlertThreshold &&
		now.Sub(gm.lastAlert) > gm.opts.AlertCooldown
	if shouldAlert {
		gm.lastAlert = now
	}
	peak := gm.peak
	components := copyMap(gm.componentCounts)
	gm.mu.Unlock()

	gm.logger.Debug().
		Int("current", current).
		Int("baseline", gm.baseline).
		Int("peak", peak).
		Float64("growth_rate", growthRate).
		Interface("components", components).
		Msg("Goroutine metrics")

	if shouldAlert {
		gm.logger.Warn().
			Int("current", current).
			Int("threshold", gm.opts.AlertThreshold).
			Float64("growth_rate", growthRate).
			Msg("High goroutine count detected - possible leak")
	}
}

// RegisterComponent records how many goroutines a component currently runs
func (gm *GoroutineMonitor) RegisterComponent(name string, count int) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.componentCounts[name] = count
}

// GetMetrics returns current goroutine metrics
func (gm *GoroutineMonitor) GetMetrics() GoroutineMetrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return GoroutineMetrics{
		Current:         gm.current,
		Baseline:        gm.baseline,
		Peak:            gm.peak,
		Growth:          gm.current - gm.baseline,
		ComponentCounts: copyMap(gm.componentCounts),
	}
}

// GoroutineMetrics contains goroutine statistics
type GoroutineMetrics struct {
	Current         int            `json:"current"`
	Baseline        int            `json:"baseline"`
	Peak            int            `json:"peak"`
	Growth          int            `json:"growth"`
	ComponentCounts map[string]int `json:"component_counts"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
