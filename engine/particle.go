package engine

import (
	"github.com/pthm-cable/halos/components"
	"github.com/pthm-cable/halos/surface"
)

// Particle is a read-only snapshot of one population slot.
type Particle struct {
	Index int
	Size  float32
	Color string

	AnchorX, AnchorY       float32
	AmplitudeX, AmplitudeY float32
	Phase                  float32
	Frequency              float32

	Handle surface.Handle

	// Pose from the most recent tick.
	Pose components.Pose
}

func snapshot(anchor *components.Anchor, drift *components.Drift, app *components.Appearance, pose *components.Pose) Particle {
	return Particle{
		Index:      app.Index,
		Size:       app.Size,
		Color:      app.Color,
		AnchorX:    anchor.X,
		AnchorY:    anchor.Y,
		AmplitudeX: drift.AmplitudeX,
		AmplitudeY: drift.AmplitudeY,
		Phase:      drift.Phase,
		Frequency:  drift.Frequency,
		Handle:     app.Handle,
		Pose:       *pose,
	}
}
