// Package scene mounts halo layers and drives them from one frame loop,
// with override reloading and telemetry output.
package scene

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/engine"
	"github.com/pthm-cable/halos/frame"
	"github.com/pthm-cable/halos/surface"
	"github.com/pthm-cable/halos/telemetry"
)

// Options holds runtime options for a scene.
type Options struct {
	Seed           uint64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string

	// Layers names the config layers to mount, bottom first. Empty mounts all.
	Layers []string

	// OverridePath is an optional override file applied on top of every layer.
	OverridePath string
	// Watch reloads the override file when it changes.
	Watch bool

	// ReducedMotion is the ambient reduced-motion signal.
	ReducedMotion bool

	// Clock is the host frame clock. Nil runs headless on a virtual clock
	// advanced one target frame per UpdateHeadless.
	Clock func() time.Duration
	// NewCanvas creates the surface for a layer. Nil uses in-memory surfaces.
	NewCanvas func(name string, width, height int32) Canvas
}

// Canvas is a mount surface whose viewport the scene controls.
type Canvas interface {
	surface.Surface
	SetViewport(width, height float32)
}

// layer is one mounted halo layer.
type layer struct {
	name      string
	override  config.HaloOverride
	container string

	canvas Canvas

	engine    *engine.Engine
	collector *telemetry.Collector
}

// Scene holds the complete runtime state.
type Scene struct {
	cfg  *config.Config
	opts Options

	clock    *frame.StepClock // headless only
	frameDur time.Duration
	loop     *frame.Loop
	registry *surface.Registry
	host     *engine.Host
	layers   []*layer

	fileOverride *config.HaloOverride
	watcher      *config.Watcher

	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	builds    uint64
	tick      int64
	startedAt time.Duration

	width, height int32
}

// New creates a scene from cfg and starts every layer.
func New(cfg *config.Config, opts Options) (*Scene, error) {
	s := &Scene{
		cfg:           cfg,
		opts:          opts,
		registry:      surface.NewRegistry(),
		host:          engine.NewHost(),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		width:         int32(cfg.Screen.Width),
		height:        int32(cfg.Screen.Height),
	}

	fps := cfg.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	s.frameDur = time.Second / time.Duration(fps)

	clock := opts.Clock
	if clock == nil {
		s.clock = &frame.StepClock{}
		clock = s.clock.Now
	}
	s.loop = frame.NewLoop(clock)

	// Every failure past this point releases what was already opened.
	fail := func(err error) (*Scene, error) {
		s.Unload()
		return nil, err
	}

	if err := s.mountLayers(); err != nil {
		return fail(err)
	}

	if opts.OverridePath != "" {
		o, err := config.LoadOverride(opts.OverridePath)
		if err != nil {
			return fail(err)
		}
		s.fileOverride = o

		if opts.Watch {
			w, err := config.NewWatcher(opts.OverridePath, 200*time.Millisecond)
			if err != nil {
				return fail(fmt.Errorf("watching override file: %w", err))
			}
			s.watcher = w
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return fail(fmt.Errorf("creating output manager: %w", err))
	}
	s.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	s.startedAt = s.loop.Now()
	s.startAll()
	return s, nil
}

// mountLayers creates one surface per selected layer.
func (s *Scene) mountLayers() error {
	selected := s.opts.Layers
	if len(selected) == 0 {
		for _, l := range s.cfg.Layers {
			selected = append(selected, l.Name)
		}
	}

	var defs []config.Layer
	if len(selected) == 0 {
		// No layers configured: a single layer with the halo defaults.
		defs = []config.Layer{{Name: "halo"}}
	}
	for _, name := range selected {
		def, ok := s.cfg.Layer(name)
		if !ok {
			return fmt.Errorf("unknown layer %q", name)
		}
		defs = append(defs, def)
	}

	statsWindow := s.opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = s.cfg.Telemetry.StatsWindow
	}

	for _, def := range defs {
		l := &layer{
			name:      def.Name,
			override:  def.Override,
			collector: telemetry.NewCollector(def.Name, statsWindow),
		}
		l.container = config.Resolve(s.cfg.Halo, &l.override, false).ContainerID

		if s.opts.NewCanvas != nil {
			l.canvas = s.opts.NewCanvas(def.Name, s.width, s.height)
		} else {
			l.canvas = surface.NewMemory(float32(s.width), float32(s.height))
		}
		s.registry.Mount(l.container, l.canvas)
		s.layers = append(s.layers, l)
	}
	return nil
}

// effective resolves the configuration for l. The override file applies to
// every layer but cannot move a layer off its own mount.
func (s *Scene) effective(l *layer) config.Halo {
	o := l.override.Merge(s.fileOverride)
	o.ContainerID = &l.container
	return config.Resolve(s.cfg.Halo, &o, s.opts.ReducedMotion)
}

// buildEngine creates a fresh engine for l with its own random stream.
func (s *Scene) buildEngine(l *layer) *engine.Engine {
	s.builds++
	return engine.New(s.effective(l), s.registry, s.loop, engine.Options{
		Rand:  rand.NewPCG(s.opts.Seed, s.builds),
		Perf:  s.perfCollector,
		Stats: l.collector,
	})
}

// startAll replaces every layer's engine with a fresh one and starts it.
func (s *Scene) startAll() {
	for _, l := range s.layers {
		l.engine = s.buildEngine(l)
		s.host.Replace(l.engine)
	}
}

// StopAll stops every layer, leaving no elements mounted.
func (s *Scene) StopAll() {
	s.host.StopAll()
}

// Restart rebuilds every layer with new random parameters.
func (s *Scene) Restart() {
	s.startAll()
	slog.Info("scene_restart", "layers", len(s.layers))
}

// Resize propagates a new viewport size to every layer.
func (s *Scene) Resize(width, height int32) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	for _, l := range s.layers {
		l.canvas.SetViewport(float32(width), float32(height))
	}
	s.host.Resize()
}

// Now returns the current frame clock time.
func (s *Scene) Now() time.Duration {
	return s.loop.Now()
}

// Frame runs every tick due at now and flushes telemetry windows.
func (s *Scene) Frame(now time.Duration) {
	s.pollReload()
	s.loop.Flush(now)
	s.tick++
	s.flushTelemetry(now)
}

// UpdateHeadless advances the virtual clock by one target frame and runs it.
// It panics if the scene was created with a host clock.
func (s *Scene) UpdateHeadless() {
	s.perfCollector.StartFrame()
	now := s.clock.Advance(s.frameDur)
	s.Frame(now)
	s.perfCollector.EndFrame()
}

// Perf returns the shared frame timing collector.
func (s *Scene) Perf() *telemetry.PerfCollector {
	return s.perfCollector
}

// Tick returns the number of frames run.
func (s *Scene) Tick() int64 {
	return s.tick
}

// Engines returns the current engine of every layer, bottom first.
func (s *Scene) Engines() []*engine.Engine {
	out := make([]*engine.Engine, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.engine
	}
	return out
}

// Canvas returns the surface of the named layer.
func (s *Scene) Canvas(name string) (Canvas, bool) {
	for _, l := range s.layers {
		if l.name == name {
			return l.canvas, true
		}
	}
	return nil, false
}

// Layers returns the mounted layer names, bottom first.
func (s *Scene) Layers() []string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.name
	}
	return names
}

// Unload stops all layers, unmounts their canvases and releases resources.
func (s *Scene) Unload() {
	s.host.StopAll()
	s.loop.Close()
	for _, l := range s.layers {
		s.registry.Unmount(l.container)
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			slog.Error("failed to close watcher", "error", err)
		}
		s.watcher = nil
	}
	if s.outputManager != nil {
		if err := s.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		s.outputManager = nil
	}
}
