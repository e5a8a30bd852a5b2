package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/halos/surface"
)

// glowLayers are the soft rings drawn around each halo, from outermost in.
// spread scales the blur radius, alpha scales the halo's opacity.
var glowLayers = []struct {
	spread float32
	alpha  float32
}{
	{1.0, 0.12},
	{0.6, 0.2},
	{0.3, 0.3},
}

// HaloSurface is a raylib-backed mount surface. Element bookkeeping is kept
// in memory; Draw paints every element in attach order.
type HaloSurface struct {
	*surface.Memory
}

// NewHaloSurface creates a surface covering a width x height viewport.
func NewHaloSurface(width, height int32) *HaloSurface {
	return &HaloSurface{Memory: surface.NewMemory(float32(width), float32(height))}
}

// Draw renders all elements. Must be called between BeginDrawing and EndDrawing.
func (s *HaloSurface) Draw() {
	rl.BeginBlendMode(rl.BlendAdditive)
	for _, el := range s.Elements() {
		drawHalo(el.Spec, el.Transform)
	}
	rl.EndBlendMode()
}

// drawHalo draws one radial gradient from the element color to transparent,
// surrounded by blur rings.
func drawHalo(spec surface.ElementSpec, t surface.Transform) {
	opacity := spec.Opacity * t.Alpha
	if opacity <= 0 {
		return
	}
	radius := spec.Size * 0.5 * t.Scale
	x, y := int32(t.X), int32(t.Y)

	inner := spec.Color
	outer := spec.Color
	outer.A = 0

	if spec.Blur > 0 {
		for _, layer := range glowLayers {
			ring := inner
			ring.A = uint8(float32(spec.Color.A) * opacity * layer.alpha)
			if ring.A == 0 {
				continue
			}
			rl.DrawCircleGradient(x, y, radius+spec.Blur*layer.spread*2, ring, outer)
		}
	}

	inner.A = uint8(float32(spec.Color.A) * opacity)
	rl.DrawCircleGradient(x, y, radius, inner, outer)
}
