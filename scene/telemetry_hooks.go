package scene

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/halos/telemetry"
)

// flushTelemetry flushes every layer whose stats window has elapsed.
func (s *Scene) flushTelemetry(now time.Duration) {
	elapsed := (now - s.startedAt).Seconds()
	flushed := false

	for _, l := range s.layers {
		if !l.collector.ShouldFlush(now) {
			continue
		}
		stats := l.collector.Flush(s.tick, now, elapsed, l.engine.Len(), l.engine.Running())
		flushed = true

		// Log stats if enabled (console output)
		if s.opts.LogStats {
			stats.LogStats()
		}

		if s.outputManager != nil {
			if err := s.outputManager.WriteTelemetry(stats); err != nil {
				slog.Error("failed to write telemetry", "error", err)
			}
		}
	}

	if !flushed {
		return
	}

	perfStats := s.perfCollector.Stats()
	if s.opts.LogStats {
		perfStats.LogStats()
	}
	if s.outputManager != nil {
		if err := s.outputManager.WritePerf(perfStats, s.tick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// LayerStats flushes the named layer's collector immediately. Used at shutdown
// so the last partial window is not lost.
func (s *Scene) LayerStats(name string) (telemetry.WindowStats, bool) {
	for _, l := range s.layers {
		if l.name == name {
			now := s.loop.Now()
			return l.collector.Flush(s.tick, now, (now - s.startedAt).Seconds(), l.engine.Len(), l.engine.Running()), true
		}
	}
	return telemetry.WindowStats{}, false
}
