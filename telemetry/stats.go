package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated animation statistics for a time window.
type WindowStats struct {
	Layer      string  `csv:"layer"`
	WindowEnd  int64   `csv:"window_end"` // Frame index at window end
	ElapsedSec float64 `csv:"elapsed"`    // Seconds since the engine started

	// Population at window end
	Particles int  `csv:"particles"`
	Running   bool `csv:"running"`

	// Lifecycle events during window
	Frames  int `csv:"frames"`
	Starts  int `csv:"starts"`
	Stops   int `csv:"stops"`
	Resizes int `csv:"resizes"`

	// Animated opacity distribution over every sampled particle-frame
	AlphaMean float64 `csv:"alpha_mean"`
	AlphaStd  float64 `csv:"alpha_std"`
	AlphaP10  float64 `csv:"alpha_p10"`
	AlphaP50  float64 `csv:"alpha_p50"`
	AlphaP90  float64 `csv:"alpha_p90"`

	// Scale distribution
	ScaleMean float64 `csv:"scale_mean"`
	ScaleMin  float64 `csv:"scale_min"`
	ScaleMax  float64 `csv:"scale_max"`
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Min, Max      float64
}

// Summarize computes mean, standard deviation, extremes and percentiles.
// Returns the zero Distribution for an empty sample. values is not modified.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var d Distribution
	d.Mean, d.Std = stat.PopMeanStdDev(sorted, nil)
	d.P10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("layer", s.Layer),
		slog.Int64("window_end", s.WindowEnd),
		slog.Float64("elapsed", s.ElapsedSec),
		slog.Int("particles", s.Particles),
		slog.Bool("running", s.Running),
		slog.Int("frames", s.Frames),
		slog.Int("starts", s.Starts),
		slog.Int("stops", s.Stops),
		slog.Int("resizes", s.Resizes),
		slog.Float64("alpha_mean", s.AlphaMean),
		slog.Float64("alpha_std", s.AlphaStd),
		slog.Float64("alpha_p10", s.AlphaP10),
		slog.Float64("alpha_p50", s.AlphaP50),
		slog.Float64("alpha_p90", s.AlphaP90),
		slog.Float64("scale_mean", s.ScaleMean),
		slog.Float64("scale_min", s.ScaleMin),
		slog.Float64("scale_max", s.ScaleMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
