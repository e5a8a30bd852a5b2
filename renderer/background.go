package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/halos/palette"
)

// BackdropRenderer fills the window behind all halo layers with a vertical
// gradient from the base color to a darker shade.
type BackdropRenderer struct {
	width, height int32
	top, bottom   color.RGBA
}

// NewBackdropRenderer creates a backdrop of the given size and base color.
func NewBackdropRenderer(width, height int32, base color.RGBA) *BackdropRenderer {
	b := &BackdropRenderer{width: width, height: height}
	b.SetColor(base)
	return b
}

// SetColor changes the base color.
func (b *BackdropRenderer) SetColor(base color.RGBA) {
	base.A = 255
	b.top = base
	b.bottom = palette.Shade(base, 0.55)
}

// Resize changes the area covered.
func (b *BackdropRenderer) Resize(width, height int32) {
	b.width, b.height = width, height
}

// Draw renders the backdrop.
func (b *BackdropRenderer) Draw() {
	rl.ClearBackground(b.bottom)
	rl.DrawRectangleGradientV(0, 0, b.width, b.height, b.top, b.bottom)
}
