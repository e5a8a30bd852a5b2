// Package components defines ECS components for halo particles.
package components

import "github.com/pthm-cable/halos/surface"

// Anchor is the base position a particle oscillates around.
// It is the only particle state rewritten after creation (on resize).
type Anchor struct {
	X, Y float32
}

// Drift holds the fixed trajectory parameters of a particle.
type Drift struct {
	AmplitudeX float32
	AmplitudeY float32
	Phase      float32 // radians, [0, 2π)
	Frequency  float32 // radians per second
}

// Appearance holds the fixed visual parameters of a particle and its element.
type Appearance struct {
	Index  int     // Creation order within the population
	Size   float32 // Diameter, >= 1
	Color  string  // Color spec from the palette, cycled by Index
	Handle surface.Handle
}

// Pose is the per-tick output of the motion pass.
type Pose struct {
	X, Y  float32
	Scale float32
	Alpha float32
}
