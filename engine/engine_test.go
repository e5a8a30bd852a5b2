package engine

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/pthm-cable/halos/components"
	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/frame"
	"github.com/pthm-cable/halos/surface"
	"github.com/pthm-cable/halos/systems"
	"github.com/pthm-cable/halos/telemetry"
)

const container = "halo-container"

func testHalo() config.Halo {
	return config.Halo{
		Count:       3,
		Colors:      []string{"a", "b", "c", "d"},
		SizeMin:     10,
		SizeMax:     10,
		BlurRadius:  2,
		BaseOpacity: 0.8,
		Alpha:       config.AlphaRange{Min: 0.35, MaxRange: 0.55},
		DriftX:      config.Range{Min: 20, Max: 70},
		DriftY:      config.Range{Min: 15, Max: 50},
		ContainerID: container,
	}
}

type fixture struct {
	clock *frame.StepClock
	loop  *frame.Loop
	surf  *surface.Memory
	reg   *surface.Registry
}

func newFixture() *fixture {
	clock := &frame.StepClock{}
	f := &fixture{
		clock: clock,
		loop:  frame.NewLoop(clock.Now),
		surf:  surface.NewMemory(800, 600),
		reg:   surface.NewRegistry(),
	}
	f.reg.Mount(container, f.surf)
	return f
}

func (f *fixture) engine(cfg config.Halo, seed uint64) *Engine {
	return New(cfg, f.reg, f.loop, Options{Rand: rand.NewPCG(seed, seed+1)})
}

// step advances the clock and runs one frame.
func (f *fixture) step(d time.Duration) int {
	return f.loop.Flush(f.clock.Advance(d))
}

func TestStartPopulatesCyclicColors(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)

	if !e.Start() {
		t.Fatal("Start returned false")
	}

	pop := e.Population()
	if len(pop) != 3 {
		t.Fatalf("population = %d, want 3", len(pop))
	}
	for i, want := range []string{"a", "b", "c"} {
		if pop[i].Color != want {
			t.Errorf("particle %d color = %q, want %q", i, pop[i].Color, want)
		}
		if pop[i].Size != 10 {
			t.Errorf("particle %d size = %v, want 10", i, pop[i].Size)
		}
	}
	if f.surf.Len() != 3 {
		t.Errorf("mounted elements = %d, want 3", f.surf.Len())
	}
	if f.loop.Pending() != 1 {
		t.Errorf("pending ticks = %d, want 1", f.loop.Pending())
	}
	if !e.Running() || !e.Ticking() {
		t.Error("engine should be running and ticking")
	}
}

func TestPopulationMatchesCount(t *testing.T) {
	for _, count := range []int{0, 1, 7, 160} {
		f := newFixture()
		cfg := testHalo()
		cfg.Count = count
		e := f.engine(cfg, uint64(count))
		e.Start()

		if e.Len() != count || f.surf.Len() != count {
			t.Errorf("count %d: population %d, mounted %d", count, e.Len(), f.surf.Len())
		}
	}
}

func TestStartIdempotent(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)

	e.Start()
	first := e.Population()
	e.Start()

	if e.Len() != 3 || f.surf.Len() != 3 {
		t.Errorf("second Start duplicated population: %d particles, %d elements", e.Len(), f.surf.Len())
	}
	if f.loop.Pending() != 1 {
		t.Errorf("second Start registered another tick: pending %d", f.loop.Pending())
	}
	for i, p := range e.Population() {
		if p != first[i] {
			t.Errorf("particle %d changed on second Start", i)
		}
	}
}

func TestStopTearsDownAndIsIdempotent(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)

	e.Start()
	f.step(16 * time.Millisecond)
	e.Stop()
	e.Stop()

	if e.Running() || e.Ticking() {
		t.Error("engine should be stopped")
	}
	if e.Len() != 0 || len(e.Population()) != 0 {
		t.Errorf("population = %d after stop", e.Len())
	}
	if f.surf.Len() != 0 {
		t.Errorf("mounted elements = %d after stop", f.surf.Len())
	}
	if f.loop.Pending() != 0 {
		t.Errorf("pending ticks = %d after stop", f.loop.Pending())
	}
}

func TestInterleavedStartStop(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 3)
	rng := rand.New(rand.NewPCG(5, 6))

	for i := 0; i < 200; i++ {
		switch rng.IntN(4) {
		case 0:
			e.Start()
		case 1:
			e.Stop()
		case 2:
			e.OnResize()
		default:
			f.step(10 * time.Millisecond)
		}

		if e.Running() {
			if e.Len() != 3 || f.surf.Len() != 3 {
				t.Fatalf("step %d: running with %d particles, %d elements", i, e.Len(), f.surf.Len())
			}
		} else if e.Len() != 0 || f.surf.Len() != 0 {
			t.Fatalf("step %d: stopped with %d particles, %d elements", i, e.Len(), f.surf.Len())
		}
		if f.loop.Pending() > 1 {
			t.Fatalf("step %d: %d ticks registered", i, f.loop.Pending())
		}
	}

	e.Stop()
	if f.surf.Len() != 0 || f.loop.Pending() != 0 {
		t.Errorf("final stop left %d elements, %d ticks", f.surf.Len(), f.loop.Pending())
	}
}

func TestStartThenImmediateStop(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)

	e.Start()
	e.Stop()

	if ran := f.step(16 * time.Millisecond); ran != 0 {
		t.Errorf("%d tick callbacks ran after stop", ran)
	}
	if f.surf.Len() != 0 {
		t.Errorf("mounted elements = %d", f.surf.Len())
	}
}

func TestTickAppliesPoses(t *testing.T) {
	f := newFixture()
	f.clock.Set(3 * time.Second)
	e := f.engine(testHalo(), 2)
	e.Start()

	f.step(500 * time.Millisecond)

	cfg := testHalo()
	for i, p := range e.Population() {
		anchor := components.Anchor{X: p.AnchorX, Y: p.AnchorY}
		drift := components.Drift{AmplitudeX: p.AmplitudeX, AmplitudeY: p.AmplitudeY, Phase: p.Phase, Frequency: p.Frequency}
		want := systems.SamplePose(anchor, drift, cfg.Alpha, 0.5)
		if p.Pose != want {
			t.Errorf("particle %d pose = %+v, want %+v", i, p.Pose, want)
		}

		el, ok := f.surf.Get(p.Handle)
		if !ok {
			t.Fatalf("particle %d element missing", i)
		}
		got := el.Transform
		if got.X != want.X || got.Y != want.Y || got.Scale != want.Scale || got.Alpha != want.Alpha {
			t.Errorf("particle %d transform = %+v, want %+v", i, got, want)
		}
		if el.Applied != 1 {
			t.Errorf("particle %d applied %d times, want 1", i, el.Applied)
		}
	}

	if f.loop.Pending() != 1 {
		t.Errorf("tick not rescheduled: pending %d", f.loop.Pending())
	}
}

func TestLongPauseJumpsToElapsed(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 4)
	e.Start()

	f.step(16 * time.Millisecond)
	f.step(90 * time.Second)

	cfg := testHalo()
	for i, p := range e.Population() {
		anchor := components.Anchor{X: p.AnchorX, Y: p.AnchorY}
		drift := components.Drift{AmplitudeX: p.AmplitudeX, AmplitudeY: p.AmplitudeY, Phase: p.Phase, Frequency: p.Frequency}
		elapsed := (90*time.Second + 16*time.Millisecond).Seconds()
		if want := systems.SamplePose(anchor, drift, cfg.Alpha, elapsed); p.Pose != want {
			t.Errorf("particle %d pose = %+v, want %+v", i, p.Pose, want)
		}
	}
}

func TestAlphaStaysInUnitRange(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	cfg.Count = 40
	cfg.Alpha = config.AlphaRange{Min: -0.5, MaxRange: 2.5}
	e := f.engine(cfg, 9)
	e.Start()

	for i := 0; i < 120; i++ {
		f.step(37 * time.Millisecond)
		for _, p := range e.Population() {
			if p.Pose.Alpha < 0 || p.Pose.Alpha > 1 || math.IsNaN(float64(p.Pose.Alpha)) {
				t.Fatalf("alpha %v out of [0, 1]", p.Pose.Alpha)
			}
		}
	}
}

func TestReducedMotionIsInert(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	cfg.ReducedMotion = true
	e := f.engine(cfg, 1)

	if e.Start() {
		t.Error("Start should report inert engine")
	}
	if f.surf.Len() != 0 || f.loop.Pending() != 0 || e.Running() {
		t.Errorf("reduced motion: %d elements, %d ticks, running=%v", f.surf.Len(), f.loop.Pending(), e.Running())
	}
	e.OnResize()
	e.Stop()
}

func TestMissingMountIsInert(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	cfg.ContainerID = "nowhere"
	e := f.engine(cfg, 1)

	if e.Start() {
		t.Error("Start should fail softly without a mount")
	}
	if e.Running() || f.loop.Pending() != 0 || e.Len() != 0 {
		t.Error("engine should stay stopped")
	}
	e.Stop()

	// The check is per Start call.
	f.reg.Mount("nowhere", f.surf)
	if !e.Start() {
		t.Error("Start should succeed once the mount exists")
	}
}

func TestSchedulerFailureKeepsStaticPopulation(t *testing.T) {
	f := newFixture()
	f.loop.Close()
	e := f.engine(testHalo(), 1)

	if !e.Start() {
		t.Fatal("Start should not fail on a scheduling error")
	}
	if e.Ticking() {
		t.Error("no tick should be registered")
	}
	if f.surf.Len() != 3 {
		t.Errorf("mounted elements = %d, want 3", f.surf.Len())
	}
	for _, p := range e.Population() {
		el, _ := f.surf.Get(p.Handle)
		if el.Transform.X != p.AnchorX || el.Transform.Y != p.AnchorY {
			t.Errorf("element not at anchor: %+v vs (%v, %v)", el.Transform, p.AnchorX, p.AnchorY)
		}
	}

	// Resize still moves elements to their new anchors.
	f.surf.SetViewport(50, 40)
	e.OnResize()
	for _, p := range e.Population() {
		el, _ := f.surf.Get(p.Handle)
		if el.Transform.X != p.AnchorX || el.Transform.Y != p.AnchorY {
			t.Errorf("element not moved to new anchor: %+v", el.Transform)
		}
	}

	e.Stop()
	if f.surf.Len() != 0 {
		t.Errorf("mounted elements = %d after stop", f.surf.Len())
	}
}

func TestResizeReseedsAnchorsOnly(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	cfg.Count = 50
	e := f.engine(cfg, 11)
	e.Start()
	before := e.Population()

	f.surf.SetViewport(120, 80)
	e.OnResize()
	after := e.Population()

	if f.surf.Len() != 50 {
		t.Errorf("resize recreated elements: %d mounted", f.surf.Len())
	}
	for i := range after {
		a, b := after[i], before[i]
		if a.AnchorX < 0 || a.AnchorX > 120 || a.AnchorY < 0 || a.AnchorY > 80 {
			t.Errorf("particle %d anchor (%v, %v) outside viewport", i, a.AnchorX, a.AnchorY)
		}
		if a.Size != b.Size || a.AmplitudeX != b.AmplitudeX || a.AmplitudeY != b.AmplitudeY ||
			a.Phase != b.Phase || a.Frequency != b.Frequency || a.Color != b.Color || a.Handle != b.Handle {
			t.Errorf("particle %d static parameters changed on resize", i)
		}
	}
}

func TestResizeWhileStoppedIsNoop(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)
	e.OnResize()
	if e.Running() || f.surf.Len() != 0 {
		t.Error("resize should not start the engine")
	}
}

func TestResizeDuringPopulateIsDeferred(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	cfg.Count = 20
	e := f.engine(cfg, 13)

	attached := 0
	f.surf.OnAttach = func(surface.Handle) {
		attached++
		if attached == 1 {
			f.surf.SetViewport(10, 10)
			e.OnResize()
		}
	}

	if !e.Start() {
		t.Fatal("Start returned false")
	}
	if e.Len() != 20 {
		t.Fatalf("population = %d, want 20", e.Len())
	}
	// The deferred reseed covers particles created before the resize too.
	for i, p := range e.Population() {
		if p.AnchorX > 10 || p.AnchorY > 10 {
			t.Errorf("particle %d anchor (%v, %v) not reseeded into new viewport", i, p.AnchorX, p.AnchorY)
		}
	}
}

func TestStopDuringPopulateIsDeferred(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 1)

	f.surf.OnAttach = func(surface.Handle) { e.Stop() }

	if e.Start() {
		t.Error("Start should report the stop that arrived during populate")
	}
	if e.Running() || f.surf.Len() != 0 || f.loop.Pending() != 0 {
		t.Errorf("stop during populate left %d elements, %d ticks", f.surf.Len(), f.loop.Pending())
	}
}

// applyHook is a surface whose Apply runs a callback, the way a host page can
// react to an element update.
type applyHook struct {
	*surface.Memory
	onApply func()
}

func (a *applyHook) Apply(h surface.Handle, t surface.Transform) {
	a.Memory.Apply(h, t)
	if a.onApply != nil {
		a.onApply()
	}
}

func TestStopDuringTick(t *testing.T) {
	f := newFixture()
	hook := &applyHook{Memory: f.surf}
	f.reg.Mount(container, hook)
	cfg := testHalo()
	cfg.Count = 8
	e := f.engine(cfg, 1)

	if !e.Start() {
		t.Fatal("Start failed")
	}
	applied := 0
	hook.onApply = func() {
		applied++
		if applied == 3 {
			e.Stop()
		}
	}

	f.step(16 * time.Millisecond)

	if e.Running() || e.Len() != 0 {
		t.Errorf("running=%v len=%d after stop mid-tick", e.Running(), e.Len())
	}
	if f.surf.Len() != 0 || f.loop.Pending() != 0 {
		t.Errorf("stop mid-tick left %d elements, %d ticks", f.surf.Len(), f.loop.Pending())
	}

	// The world must be usable again once the tick has returned.
	hook.onApply = nil
	if !e.Start() {
		t.Fatal("restart after stop mid-tick failed")
	}
	if e.Len() != 8 || f.surf.Len() != 8 {
		t.Errorf("restart population = %d, elements = %d, want 8", e.Len(), f.surf.Len())
	}
	if n := f.step(16 * time.Millisecond); n != 1 {
		t.Errorf("flush ran %d callbacks, want 1", n)
	}
}

func TestRestartDuringTick(t *testing.T) {
	f := newFixture()
	hook := &applyHook{Memory: f.surf}
	f.reg.Mount(container, hook)
	e := f.engine(testHalo(), 1)
	e.Start()
	before := e.Population()

	restarted := false
	hook.onApply = func() {
		if restarted {
			return
		}
		restarted = true
		e.Stop()
		if e.Start() {
			t.Error("Start inside a tick should report that it was deferred")
		}
	}

	f.step(16 * time.Millisecond)

	if !e.Running() || e.Len() != 3 || f.surf.Len() != 3 {
		t.Fatalf("running=%v len=%d elements=%d after restart mid-tick", e.Running(), e.Len(), f.surf.Len())
	}
	if f.loop.Pending() != 1 {
		t.Errorf("pending ticks = %d, want 1", f.loop.Pending())
	}
	after := e.Population()
	for i := range after {
		if after[i].Handle == before[i].Handle {
			t.Errorf("particle %d kept its old element %d", i, after[i].Handle)
		}
	}
}

func TestStopCancelsDeferredStart(t *testing.T) {
	f := newFixture()
	hook := &applyHook{Memory: f.surf}
	f.reg.Mount(container, hook)
	e := f.engine(testHalo(), 1)
	e.Start()

	once := false
	hook.onApply = func() {
		if once {
			return
		}
		once = true
		e.Stop()
		e.Start()
		e.Stop()
	}

	f.step(16 * time.Millisecond)

	if e.Running() || f.surf.Len() != 0 || f.loop.Pending() != 0 {
		t.Errorf("running=%v elements=%d ticks=%d", e.Running(), f.surf.Len(), f.loop.Pending())
	}
}

func TestRestartSamplesNewParameters(t *testing.T) {
	f := newFixture()
	e := f.engine(testHalo(), 21)

	e.Start()
	first := e.Population()
	e.Stop()
	e.Start()
	second := e.Population()

	same := 0
	for i := range first {
		if first[i].Phase == second[i].Phase && first[i].AnchorX == second[i].AnchorX {
			same++
		}
	}
	if same == len(first) {
		t.Error("restart replayed the previous parameters")
	}
	if second[0].Color != "a" {
		t.Errorf("colors must restart from index 0, got %q", second[0].Color)
	}
}

func TestConfigIsACopy(t *testing.T) {
	f := newFixture()
	cfg := testHalo()
	e := f.engine(cfg, 1)

	cfg.Colors[0] = "mutated"
	got := e.Config()
	got.Colors[1] = "mutated"

	if e.Config().Colors[0] != "a" || e.Config().Colors[1] != "b" {
		t.Errorf("engine config aliased: %v", e.Config().Colors)
	}
}

// recordingScheduler never drops callbacks on cancel, so a test can replay a
// tick that was already in flight.
type recordingScheduler struct {
	now      time.Duration
	next     frame.Handle
	cbs      []frame.Callback
	canceled []frame.Handle
}

func (s *recordingScheduler) Now() time.Duration { return s.now }

func (s *recordingScheduler) RequestFrame(cb frame.Callback) (frame.Handle, error) {
	s.next++
	s.cbs = append(s.cbs, cb)
	return s.next, nil
}

func (s *recordingScheduler) CancelFrame(h frame.Handle) {
	s.canceled = append(s.canceled, h)
}

func TestLateTickAfterStopIsIgnored(t *testing.T) {
	sched := &recordingScheduler{}
	surf := surface.NewMemory(800, 600)
	reg := surface.NewRegistry()
	reg.Mount(container, surf)

	e := New(testHalo(), reg, sched, Options{Rand: rand.NewPCG(1, 2)})
	e.Start()
	stale := sched.cbs[0]

	e.Stop()
	if len(sched.canceled) != 1 || sched.canceled[0] != 1 {
		t.Errorf("canceled = %v, want [1]", sched.canceled)
	}

	stale(time.Second)
	if len(sched.cbs) != 1 {
		t.Error("stale tick after stop scheduled another frame")
	}

	// A stale tick from a previous run must not drive the new one.
	e.Start()
	requested := len(sched.cbs)
	stale(2 * time.Second)
	if len(sched.cbs) != requested {
		t.Error("stale tick from previous run rescheduled")
	}
	for _, el := range surf.Elements() {
		if el.Applied != 0 {
			t.Errorf("stale tick applied a transform to element %d", el.Handle)
		}
	}

	// The current tick still works.
	sched.cbs[len(sched.cbs)-1](time.Second)
	for _, el := range surf.Elements() {
		if el.Applied != 1 {
			t.Errorf("element %d applied %d times, want 1", el.Handle, el.Applied)
		}
	}
}

func TestStatsAndPerfOptions(t *testing.T) {
	f := newFixture()
	stats := telemetry.NewCollector("halo", 1)
	perf := telemetry.NewPerfCollector(8)
	e := New(testHalo(), f.reg, f.loop, Options{Rand: rand.NewPCG(1, 2), Stats: stats, Perf: perf})

	perf.StartFrame()
	e.Start()
	perf.EndFrame()
	for i := 0; i < 4; i++ {
		perf.StartFrame()
		f.step(250 * time.Millisecond)
		perf.EndFrame()
	}
	e.OnResize()
	e.Stop()

	w := stats.Flush(4, f.clock.Now(), 1, e.Len(), e.Running())
	if w.Frames != 4 || w.Starts != 1 || w.Stops != 1 || w.Resizes != 1 {
		t.Errorf("window counters = %+v", w)
	}
	if w.AlphaMean <= 0 || w.ScaleMin < 0.85 || w.ScaleMax > 1.15+1e-6 {
		t.Errorf("window samples = %+v", w)
	}
	if _, ok := perf.Stats().PhaseAvg[telemetry.PhaseMotion]; !ok {
		t.Error("motion phase not measured")
	}
}
