package systems

import (
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/halos/components"
	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/palette"
	"github.com/pthm-cable/halos/surface"
)

// Frequency bounds, in radians per second.
const (
	MinFrequency = 0.2
	MaxFrequency = 0.6
)

// DefaultColor is used when a config has no colors at all.
const DefaultColor = "#ffffff"

// ParticleMapper creates and removes particle entities.
type ParticleMapper = ecs.Map4[components.Anchor, components.Drift, components.Appearance, components.Pose]

// ParticleFilter iterates every particle entity.
type ParticleFilter = ecs.Filter4[components.Anchor, components.Drift, components.Appearance, components.Pose]

// Factory samples particle parameters and creates their elements.
type Factory struct {
	cfg    config.Halo
	src    rand.Source
	colors []string
	rgba   []color.RGBA
}

// NewFactory creates a factory for cfg drawing randomness from src.
// A nil src uses the global generator.
func NewFactory(cfg config.Halo, src rand.Source) *Factory {
	colors := cfg.Colors
	if len(colors) == 0 {
		colors = []string{DefaultColor}
	}

	rgba := make([]color.RGBA, len(colors))
	for i, spec := range colors {
		c, err := palette.Parse(spec)
		if err != nil {
			slog.Warn("halo_color_fallback", "color", spec, "error", err)
			c = palette.Fallback
		}
		rgba[i] = c
	}

	return &Factory{cfg: cfg, src: src, colors: colors, rgba: rgba}
}

// uniform samples from [lo, hi). Inverted bounds sample from [hi, lo).
func (f *Factory) uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: f.src}.Rand()
}

// Spawn samples the static parameters of particle i for the given viewport.
func (f *Factory) Spawn(i int, viewportW, viewportH float32) (components.Anchor, components.Drift, components.Appearance) {
	size := math.Round(f.uniform(f.cfg.SizeMin, f.cfg.SizeMax))
	size = maxf(size, 1) // also maps NaN to 1

	anchor := components.Anchor{
		X: float32(f.uniform(0, float64(viewportW))),
		Y: float32(f.uniform(0, float64(viewportH))),
	}
	drift := components.Drift{
		AmplitudeX: float32(f.uniform(f.cfg.DriftX.Min, f.cfg.DriftX.Max)),
		AmplitudeY: float32(f.uniform(f.cfg.DriftY.Min, f.cfg.DriftY.Max)),
		Phase:      float32(f.uniform(0, 2*math.Pi)),
		Frequency:  float32(f.uniform(MinFrequency, MaxFrequency)),
	}
	app := components.Appearance{
		Index: i,
		Size:  float32(size),
		Color: f.colors[i%len(f.colors)],
	}
	return anchor, drift, app
}

// Populate creates the configured number of particles, attaching one element
// per particle to surf in creation order. Entities are returned in that order.
func (f *Factory) Populate(mapper *ParticleMapper, surf surface.Surface) []ecs.Entity {
	count := f.cfg.Count
	if count < 0 {
		count = 0
	}

	entities := make([]ecs.Entity, 0, count)
	for i := 0; i < count; i++ {
		vw, vh := surf.Viewport()
		anchor, drift, app := f.Spawn(i, vw, vh)

		app.Handle = surf.Attach(surface.ElementSpec{
			Size:    app.Size,
			Color:   f.rgba[i%len(f.rgba)],
			Blur:    float32(f.cfg.BlurRadius),
			Opacity: float32(f.cfg.BaseOpacity),
			X:       anchor.X,
			Y:       anchor.Y,
		})

		pose := components.Pose{X: anchor.X, Y: anchor.Y, Scale: 1, Alpha: 1}
		entities = append(entities, mapper.NewEntity(&anchor, &drift, &app, &pose))
	}
	return entities
}

// Reseed re-samples an anchor inside the given viewport.
func (f *Factory) Reseed(anchor *components.Anchor, viewportW, viewportH float32) {
	anchor.X = float32(f.uniform(0, float64(viewportW)))
	anchor.Y = float32(f.uniform(0, float64(viewportH)))
}
