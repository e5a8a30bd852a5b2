package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/halos/config"
)

// csvSink is an append-only CSV file whose header goes out with the first row.
type csvSink struct {
	name   string
	file   *os.File
	primed bool
}

func openSink(dir, name string) (*csvSink, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvSink{name: name, file: f}, nil
}

// appendRows marshals rows into sink, writing the header only once per file.
func appendRows[T any](sink *csvSink, rows []T) error {
	marshal := gocsv.MarshalWithoutHeaders
	if !sink.primed {
		marshal = gocsv.Marshal
	}
	if err := marshal(rows, sink.file); err != nil {
		return fmt.Errorf("writing %s: %w", sink.name, err)
	}
	sink.primed = true
	return nil
}

// OutputManager owns a run's output directory: per-layer window stats,
// perf windows and the config snapshot. A nil manager discards everything.
type OutputManager struct {
	dir   string
	stats *csvSink
	perf  *csvSink
}

// NewOutputManager creates dir and opens telemetry.csv and perf.csv in it.
// An empty dir disables output and returns a nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stats, err := openSink(dir, "telemetry.csv")
	if err != nil {
		return nil, err
	}
	perf, err := openSink(dir, "perf.csv")
	if err != nil {
		stats.file.Close()
		return nil, err
	}
	return &OutputManager{dir: dir, stats: stats, perf: perf}, nil
}

// WriteConfig snapshots cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends one layer window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return appendRows(om.stats, []WindowStats{stats})
}

// WritePerf appends one perf window, labelled with the frame it ended on.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	return appendRows(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.stats.file.Close(), om.perf.file.Close())
}
