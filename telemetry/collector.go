package telemetry

import "time"

// Collector accumulates animation samples and lifecycle events within time
// windows and produces WindowStats. It implements the motion pass sample sink.
type Collector struct {
	layer  string
	window time.Duration

	windowStart time.Duration
	started     bool

	frames  int
	starts  int
	stops   int
	resizes int
	alphas  []float64
	scales  []float64
}

// NewCollector creates a collector for one layer.
// windowSec: how long each stats window lasts in seconds.
func NewCollector(layer string, windowSec float64) *Collector {
	window := time.Duration(windowSec * float64(time.Second))
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Collector{
		layer:  layer,
		window: window,
		alphas: make([]float64, 0, 1024),
		scales: make([]float64, 0, 1024),
	}
}

// Layer returns the layer name stamped on each window.
func (c *Collector) Layer() string {
	return c.layer
}

// RecordSample records one particle's animated values for the current frame.
func (c *Collector) RecordSample(alpha, scale float32) {
	c.alphas = append(c.alphas, float64(alpha))
	c.scales = append(c.scales, float64(scale))
}

// RecordFrame records a completed motion pass at host time now.
func (c *Collector) RecordFrame(now time.Duration) {
	if !c.started {
		c.windowStart = now
		c.started = true
	}
	c.frames++
}

// RecordStart records an engine start.
func (c *Collector) RecordStart() {
	c.starts++
}

// RecordStop records an engine stop.
func (c *Collector) RecordStop() {
	c.stops++
}

// RecordResize records an anchor reseed.
func (c *Collector) RecordResize() {
	c.resizes++
}

// ShouldFlush returns true once a full window has elapsed since the first frame.
func (c *Collector) ShouldFlush(now time.Duration) bool {
	return c.started && now-c.windowStart >= c.window
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the frame index, elapsed run time and population state.
func (c *Collector) Flush(frame int64, now time.Duration, elapsedSec float64, particles int, running bool) WindowStats {
	alpha := Summarize(c.alphas)
	scale := Summarize(c.scales)

	stats := WindowStats{
		Layer:      c.layer,
		WindowEnd:  frame,
		ElapsedSec: elapsedSec,
		Particles:  particles,
		Running:    running,
		Frames:     c.frames,
		Starts:     c.starts,
		Stops:      c.stops,
		Resizes:    c.resizes,
		AlphaMean:  alpha.Mean,
		AlphaStd:   alpha.Std,
		AlphaP10:   alpha.P10,
		AlphaP50:   alpha.P50,
		AlphaP90:   alpha.P90,
		ScaleMean:  scale.Mean,
		ScaleMin:   scale.Min,
		ScaleMax:   scale.Max,
	}

	c.frames, c.starts, c.stops, c.resizes = 0, 0, 0, 0
	c.alphas = c.alphas[:0]
	c.scales = c.scales[:0]
	c.windowStart = now
	return stats
}
