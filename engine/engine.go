// Package engine drives one halo layer: it populates particles on a mounted
// surface, animates them from elapsed time, and tears them down on stop.
package engine

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/halos/components"
	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/frame"
	"github.com/pthm-cable/halos/surface"
	"github.com/pthm-cable/halos/systems"
	"github.com/pthm-cable/halos/telemetry"
)

// Options are optional engine collaborators. The zero value is valid.
type Options struct {
	// Rand is the source for particle parameters. Nil uses the global generator.
	Rand rand.Source
	// Perf receives populate, motion and resize phase timings.
	Perf *telemetry.PerfCollector
	// Stats receives per-tick samples and lifecycle events.
	Stats *telemetry.Collector
}

// Engine is the lifecycle controller for one halo layer.
// It is not safe for concurrent use; all calls and frame callbacks must run
// on the goroutine that drives the scheduler.
type Engine struct {
	cfg    config.Halo
	mounts surface.Lookup
	sched  frame.Scheduler
	opts   Options

	world   *ecs.World
	mapper  *systems.ParticleMapper
	filter  *systems.ParticleFilter
	anchors *ecs.Map1[components.Anchor]
	appMap  *ecs.Map1[components.Appearance]

	factory *systems.Factory
	motion  *systems.MotionSystem

	// Runtime state
	surf          surface.Surface
	population    []ecs.Entity
	running       bool
	populating    bool
	pendingResize bool
	pendingStop   bool
	advancing     bool         // motion query open; the world is locked
	pendingStart  bool         // Start called from inside a tick
	doomed        []ecs.Entity // stopped during a tick, removed once it returns
	tick          frame.Handle
	ticking       bool
	run           uint64 // bumped on every stop; stale callbacks compare against it
	startTime     time.Duration
}

// New creates a stopped engine for cfg. The engine keeps its own copy of cfg.
func New(cfg config.Halo, mounts surface.Lookup, sched frame.Scheduler, opts Options) *Engine {
	cfg = cfg.Clone()
	world := ecs.NewWorld()

	var sink systems.SampleSink
	if opts.Stats != nil {
		sink = opts.Stats
	}

	return &Engine{
		cfg:     cfg,
		mounts:  mounts,
		sched:   sched,
		opts:    opts,
		world:   world,
		mapper:  ecs.NewMap4[components.Anchor, components.Drift, components.Appearance, components.Pose](world),
		filter:  ecs.NewFilter4[components.Anchor, components.Drift, components.Appearance, components.Pose](world),
		anchors: ecs.NewMap1[components.Anchor](world),
		appMap:  ecs.NewMap1[components.Appearance](world),
		factory: systems.NewFactory(cfg, opts.Rand),
		motion:  systems.NewMotionSystem(cfg.Alpha, sink),
	}
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() config.Halo {
	return e.cfg.Clone()
}

// Container returns the mount identifier the engine attaches to.
func (e *Engine) Container() string {
	return e.cfg.ContainerID
}

// Running reports whether the engine has a live population.
func (e *Engine) Running() bool {
	return e.running
}

// Ticking reports whether a frame callback is currently scheduled.
func (e *Engine) Ticking() bool {
	return e.ticking
}

// Len returns the population size.
func (e *Engine) Len() int {
	return len(e.population)
}

// Start populates the mount surface and begins the tick loop.
// It returns true if the engine is running afterwards. Starting a running
// engine is a no-op. With reduced motion, or when the mount is missing, the
// engine stays inert and Start returns false. A Start issued from inside a
// tick returns false and runs once the tick has finished.
func (e *Engine) Start() bool {
	if e.running {
		return true
	}
	if e.cfg.ReducedMotion {
		slog.Info("halo_reduced_motion", "container", e.cfg.ContainerID)
		return false
	}

	surf, ok := e.mounts.Lookup(e.cfg.ContainerID)
	if !ok {
		slog.Warn("halo_mount_missing", "container", e.cfg.ContainerID)
		return false
	}
	if e.advancing {
		// The previous population is still held by the open motion query.
		e.pendingStart = true
		slog.Debug("halo_start_deferred", "container", e.cfg.ContainerID)
		return false
	}

	e.surf = surf
	e.running = true
	e.startTime = e.sched.Now()

	e.populate()
	if e.pendingStop {
		e.pendingStop = false
		e.pendingResize = false
		e.Stop()
		return false
	}

	if e.opts.Stats != nil {
		e.opts.Stats.RecordStart()
	}
	e.schedule()

	slog.Info("halo_start",
		"container", e.cfg.ContainerID,
		"particles", len(e.population),
		"animated", e.ticking,
	)

	if e.pendingResize {
		e.pendingResize = false
		e.reseed()
	}
	return true
}

// populate builds the population. Resize and stop requests arriving while it
// runs are deferred until it returns.
func (e *Engine) populate() {
	defer e.opts.Perf.Measure(telemetry.PhasePopulate)()

	e.populating = true
	e.population = e.factory.Populate(e.mapper, e.surf)
	e.populating = false
}

// schedule requests the next tick. On failure the population stays mounted
// at its anchors and is not animated.
func (e *Engine) schedule() {
	run := e.run
	h, err := e.sched.RequestFrame(func(now time.Duration) {
		e.onFrame(run, now)
	})
	if err != nil {
		e.ticking = false
		e.tick = 0
		slog.Warn("halo_schedule_failed", "container", e.cfg.ContainerID, "error", err)
		return
	}
	e.tick = h
	e.ticking = true
}

func (e *Engine) onFrame(run uint64, now time.Duration) {
	if !e.running || run != e.run {
		return
	}
	e.ticking = false
	e.tick = 0

	elapsed := (now - e.startTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	e.Advance(elapsed)

	if e.running && !e.ticking {
		e.schedule()
	}
}

// Advance runs one tick at the given elapsed seconds since start and returns
// the number of particles updated. It does nothing while stopped.
// Stop and Start calls made by the surface during the tick are safe: entity
// removal and repopulation wait until the motion query has closed.
func (e *Engine) Advance(elapsed float64) int {
	if !e.running || e.populating || e.advancing {
		return 0
	}

	stop := e.opts.Perf.Measure(telemetry.PhaseMotion)
	e.advancing = true
	n := e.motion.Update(e.filter, e.surf, elapsed)
	e.advancing = false
	stop()

	if !e.running {
		e.reap()
		return n
	}
	if e.opts.Stats != nil {
		e.opts.Stats.RecordFrame(e.startTime + frame.Seconds(elapsed))
	}
	return n
}

// reap removes the entities of a population stopped mid-tick and runs a
// Start that was requested meanwhile.
func (e *Engine) reap() {
	for _, entity := range e.doomed {
		e.world.RemoveEntity(entity)
	}
	e.doomed = nil

	if e.pendingStart {
		e.pendingStart = false
		e.Start()
	}
}

// Stop cancels the pending tick, detaches every element and empties the
// population. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.pendingStart = false
	if !e.running {
		return
	}
	if e.populating {
		e.pendingStop = true
		return
	}

	// Release the tick before tearing anything down.
	e.running = false
	e.run++
	if e.ticking {
		e.sched.CancelFrame(e.tick)
		e.ticking = false
		e.tick = 0
	}

	for _, entity := range e.population {
		app := e.appMap.Get(entity)
		e.surf.Detach(app.Handle)
	}
	if e.advancing {
		e.doomed = append(e.doomed, e.population...)
	} else {
		for _, entity := range e.population {
			e.world.RemoveEntity(entity)
		}
	}
	n := len(e.population)
	e.population = nil
	e.pendingResize = false
	e.surf = nil

	if e.opts.Stats != nil {
		e.opts.Stats.RecordStop()
	}
	slog.Info("halo_stop", "container", e.cfg.ContainerID, "particles", n)
}

// OnResize re-samples every particle's anchor from the current viewport,
// keeping all other parameters and elements. It is a no-op while stopped and
// deferred while the population is being built.
func (e *Engine) OnResize() {
	if !e.running {
		return
	}
	if e.populating {
		e.pendingResize = true
		return
	}
	e.reseed()
}

func (e *Engine) reseed() {
	defer e.opts.Perf.Measure(telemetry.PhaseResize)()

	vw, vh := e.surf.Viewport()
	for _, entity := range e.population {
		anchor := e.anchors.Get(entity)
		e.factory.Reseed(anchor, vw, vh)

		// Without a tick loop nothing else moves the element.
		if !e.ticking {
			e.surf.Apply(e.appMap.Get(entity).Handle, surface.Transform{
				X: anchor.X, Y: anchor.Y, Scale: 1, Alpha: 1,
			})
		}
	}

	if e.opts.Stats != nil {
		e.opts.Stats.RecordResize()
	}
	slog.Debug("halo_resize", "container", e.cfg.ContainerID, "width", vw, "height", vh)
}

// Population returns a snapshot of the particles in creation order.
func (e *Engine) Population() []Particle {
	out := make([]Particle, 0, len(e.population))
	for _, entity := range e.population {
		out = append(out, snapshot(e.mapper.Get(entity)))
	}
	return out
}
