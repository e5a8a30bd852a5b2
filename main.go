package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/scene"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	overridePath := flag.String("override", "", "Path to a halo override YAML applied to every layer")
	layers := flag.String("layers", "", "Comma-separated layers to mount, bottom first (empty = all configured)")
	headless := flag.Bool("headless", false, "Run without graphics")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N frames (0 = unlimited)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	reducedMotion := flag.Bool("reduced-motion", false, "Force the reduced-motion preference")
	watch := flag.Bool("watch", false, "Reload the override file when it changes")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	opts := scene.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Layers:         splitList(*layers),
		OverridePath:   *overridePath,
		Watch:          *watch,
		ReducedMotion:  *reducedMotion || config.PrefersReducedMotion(),
	}

	if *headless {
		// Headless mode - virtual clock, in-memory surfaces, no raylib calls
		s, err := scene.New(cfg, opts)
		if err != nil {
			slog.Error("failed to create scene", "error", err)
			os.Exit(1)
		}
		defer s.Unload()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"layers", s.Layers(),
			"max_ticks", *maxTicks,
			"reduced_motion", opts.ReducedMotion,
		)

		for {
			s.UpdateHeadless()

			if *maxTicks > 0 && s.Tick() >= *maxTicks {
				slog.Info("max ticks reached", "tick", s.Tick())
				return
			}
		}
	}

	if err := runWindow(cfg, opts, *maxTicks); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
