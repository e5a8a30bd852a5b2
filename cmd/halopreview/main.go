// Halo preview tool - interactive tuning of one halo layer with sliders.
//
// Usage: go run ./cmd/halopreview
package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/engine"
	"github.com/pthm-cable/halos/frame"
	"github.com/pthm-cable/halos/palette"
	"github.com/pthm-cable/halos/renderer"
	"github.com/pthm-cable/halos/surface"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewWidth = 720
	panelWidth   = windowWidth - previewWidth - 30
	container    = "preview"
)

// HaloParams holds the tunable halo parameters.
type HaloParams struct {
	Count       float32
	SizeMin     float32
	SizeMax     float32
	BlurRadius  float32
	BaseOpacity float32
	AlphaMin    float32
	AlphaRange  float32
	DriftXMax   float32
	DriftYMax   float32
}

func paramsFrom(h config.Halo) HaloParams {
	return HaloParams{
		Count:       float32(h.Count),
		SizeMin:     float32(h.SizeMin),
		SizeMax:     float32(h.SizeMax),
		BlurRadius:  float32(h.BlurRadius),
		BaseOpacity: float32(h.BaseOpacity),
		AlphaMin:    float32(h.Alpha.Min),
		AlphaRange:  float32(h.Alpha.MaxRange),
		DriftXMax:   float32(h.DriftX.Max),
		DriftYMax:   float32(h.DriftY.Max),
	}
}

// override turns the slider values into an override on top of base.
func (p HaloParams) override(base config.Halo) *config.HaloOverride {
	return &config.HaloOverride{
		Count:       config.Ptr(int(p.Count)),
		SizeMin:     config.Ptr(float64(p.SizeMin)),
		SizeMax:     config.Ptr(float64(p.SizeMax)),
		BlurRadius:  config.Ptr(float64(p.BlurRadius)),
		BaseOpacity: config.Ptr(float64(p.BaseOpacity)),
		Alpha:       &config.AlphaRange{Min: float64(p.AlphaMin), MaxRange: float64(p.AlphaRange)},
		DriftX:      &config.Range{Min: base.DriftX.Min, Max: float64(p.DriftXMax)},
		DriftY:      &config.Range{Min: base.DriftY.Min, Max: float64(p.DriftYMax)},
	}
}

type slider struct {
	label    string
	value    *float32
	min, max float32
	format   string
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	base := cfg.Halo
	base.ContainerID = container

	rl.InitWindow(windowWidth, windowHeight, "Halo Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	preview := renderer.NewHaloSurface(previewWidth, windowHeight)
	backdrop := renderer.NewBackdropRenderer(previewWidth, windowHeight, palette.MustParse(cfg.Screen.Background))
	registry := surface.NewRegistry()
	registry.Mount(container, preview)
	loop := frame.NewLoop(func() time.Duration { return frame.Seconds(rl.GetTime()) })

	params := paramsFrom(base)
	seed := uint64(1)

	var current *engine.Engine
	rebuild := func() {
		if current != nil {
			current.Stop()
		}
		halo := config.Resolve(base, params.override(base), false)
		current = engine.New(halo, registry, loop, engine.Options{Rand: rand.NewPCG(seed, 0)})
		current.Start()
	}
	rebuild()
	defer func() { current.Stop() }()

	sliders := []slider{
		{"Count", &params.Count, 1, 400, "%.0f"},
		{"Size min", &params.SizeMin, 1, 40, "%.1f"},
		{"Size max", &params.SizeMax, 1, 60, "%.1f"},
		{"Blur radius", &params.BlurRadius, 0, 12, "%.1f"},
		{"Base opacity", &params.BaseOpacity, 0, 1, "%.2f"},
		{"Alpha min", &params.AlphaMin, 0, 1, "%.2f"},
		{"Alpha range", &params.AlphaRange, 0, 1, "%.2f"},
		{"Drift X max", &params.DriftXMax, 0, 200, "%.0f"},
		{"Drift Y max", &params.DriftYMax, 0, 200, "%.0f"},
	}

	for !rl.WindowShouldClose() {
		loop.Flush(loop.Now())

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginScissorMode(0, 0, previewWidth, windowHeight)
		backdrop.Draw()
		preview.Draw()
		rl.EndScissorMode()

		// Parameter panel
		panelX := float32(previewWidth + 15)
		panelY := float32(15)

		rl.DrawText("Halo Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		needsRebuild := false
		for _, sl := range sliders {
			rl.DrawText(sl.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				*sl.value, sl.min, sl.max,
			)
			rl.DrawText(fmt.Sprintf(sl.format, *sl.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != *sl.value {
				*sl.value = v
				needsRebuild = true
			}
			panelY += 32
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reseed") {
			seed++
			needsRebuild = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = paramsFrom(base)
			needsRebuild = true
		}
		panelY += 45

		rl.DrawText(fmt.Sprintf("Particles: %d  FPS: %d", current.Len(), rl.GetFPS()), int32(panelX), int32(panelY), 14, rl.DarkGray)
		panelY += 25

		// Override YAML
		overrideYAML := params.toYAML(base)
		rl.DrawText("Override YAML:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 22
		for _, line := range strings.Split(strings.TrimSpace(overrideYAML), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 12, rl.Gray)
			panelY += 14
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(overrideYAML)
		}

		rl.EndDrawing()

		if needsRebuild {
			rebuild()
		}
	}
}

// toYAML renders the current values as an override file.
func (p HaloParams) toYAML(base config.Halo) string {
	data, err := yaml.Marshal(p.override(base))
	if err != nil {
		return fmt.Sprintf("# %v", err)
	}
	return string(data)
}
