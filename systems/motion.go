package systems

import (
	"math"

	"github.com/pthm-cable/halos/components"
	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/surface"
)

// Secondary wobble terms layered on the main drift.
const (
	wobbleX = 10.0
	wobbleY = 6.0
)

// SamplePose computes a particle's pose at elapsed seconds t.
// It depends only on t and the particle's own parameters, so missed frames
// never accumulate error.
func SamplePose(anchor components.Anchor, drift components.Drift, alpha config.AlphaRange, t float64) components.Pose {
	f := float64(drift.Frequency)
	phi := float64(drift.Phase)
	wave := math.Sin(t*f + phi)

	x := float64(anchor.X) +
		float64(drift.AmplitudeX)*wave +
		wobbleX*math.Cos(t*(f/1.2)+phi)
	y := float64(anchor.Y) +
		float64(drift.AmplitudeY)*math.Cos(t*(f*0.9)-phi) +
		wobbleY*math.Sin(t*(f/1.3)+phi)

	return components.Pose{
		X:     float32(x),
		Y:     float32(y),
		Scale: float32(0.85 + 0.3*math.Abs(wave)),
		Alpha: float32(Alpha(alpha, wave)),
	}
}

// Alpha maps the main oscillation value s in [-1, 1] to the animated opacity,
// clamped to [0, 1].
func Alpha(r config.AlphaRange, s float64) float64 {
	return clamp01(r.Min + r.MaxRange*(0.5+0.5*s))
}

// SampleSink receives the animated values of every particle on every tick.
type SampleSink interface {
	RecordSample(alpha, scale float32)
}

// MotionSystem writes poses for all particles and applies them to their elements.
type MotionSystem struct {
	alpha config.AlphaRange
	sink  SampleSink
}

// NewMotionSystem creates a motion system for the given alpha band.
func NewMotionSystem(alpha config.AlphaRange, sink SampleSink) *MotionSystem {
	return &MotionSystem{alpha: alpha, sink: sink}
}

// Update advances every particle to elapsed seconds and returns the number updated.
// Particles are independent, so iteration order does not matter.
func (s *MotionSystem) Update(filter *ParticleFilter, surf surface.Surface, elapsed float64) int {
	n := 0
	query := filter.Query()
	for query.Next() {
		anchor, drift, app, pose := query.Get()
		*pose = SamplePose(*anchor, *drift, s.alpha, elapsed)

		surf.Apply(app.Handle, surface.Transform{
			X:     pose.X,
			Y:     pose.Y,
			Scale: pose.Scale,
			Alpha: pose.Alpha,
		})
		if s.sink != nil {
			s.sink.RecordSample(pose.Alpha, pose.Scale)
		}
		n++
	}
	return n
}
