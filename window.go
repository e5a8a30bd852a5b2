package main

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/halos/config"
	"github.com/pthm-cable/halos/frame"
	"github.com/pthm-cable/halos/palette"
	"github.com/pthm-cable/halos/renderer"
	"github.com/pthm-cable/halos/scene"
	"github.com/pthm-cable/halos/telemetry"
)

// window is the graphical front end of a scene.
type window struct {
	scene    *scene.Scene
	backdrop *renderer.BackdropRenderer
	canvases []*renderer.HaloSurface // bottom first

	paused    bool
	debugMode bool
}

// runWindow opens the raylib window and runs the scene until it is closed.
func runWindow(cfg *config.Config, opts scene.Options, maxTicks int64) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Halos")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	w := &window{
		backdrop: renderer.NewBackdropRenderer(int32(cfg.Screen.Width), int32(cfg.Screen.Height), palette.MustParse(cfg.Screen.Background)),
	}

	opts.Clock = func() time.Duration { return frame.Seconds(rl.GetTime()) }
	opts.NewCanvas = func(_ string, width, height int32) scene.Canvas {
		c := renderer.NewHaloSurface(width, height)
		w.canvases = append(w.canvases, c)
		return c
	}

	s, err := scene.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("creating scene: %w", err)
	}
	defer s.Unload()
	w.scene = s

	for !rl.WindowShouldClose() {
		w.handleInput()

		perf := s.Perf()
		perf.StartFrame()
		if !w.paused {
			s.Frame(s.Now())
		}
		w.draw()
		perf.EndFrame()

		if maxTicks > 0 && s.Tick() >= maxTicks {
			break
		}
	}
	return nil
}

// handleInput processes keyboard input and window resizes.
func (w *window) handleInput() {
	if rl.IsWindowResized() {
		width, height := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
		w.backdrop.Resize(width, height)
		w.scene.Resize(width, height)
	}

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Pausing skips ticks; on resume every halo jumps to the phase for the
	// time that has passed.
	if rl.IsKeyPressed(rl.KeySpace) {
		w.paused = !w.paused
	}

	if rl.IsKeyPressed(rl.KeyD) {
		w.debugMode = !w.debugMode
	}

	// R: fresh parameters for every layer
	if rl.IsKeyPressed(rl.KeyR) {
		w.scene.Restart()
	}

	// S: stop all layers
	if rl.IsKeyPressed(rl.KeyS) {
		w.scene.StopAll()
	}
}

// draw renders the backdrop, every layer and the HUD.
func (w *window) draw() {
	defer w.scene.Perf().Measure(telemetry.PhaseDraw)()

	rl.BeginDrawing()
	w.backdrop.Draw()

	for _, c := range w.canvases {
		c.Draw()
	}

	if w.paused {
		rl.DrawText("PAUSED", 10, 10, 20, rl.Yellow)
	}
	if w.debugMode {
		w.drawDebugMenu()
	}

	rl.EndDrawing()
}

// drawDebugMenu renders the debug overlay.
func (w *window) drawDebugMenu() {
	engines := w.scene.Engines()

	panelX := int32(rl.GetScreenWidth()) - 230
	panelY := int32(10)
	panelW := int32(220)
	panelH := int32(70 + 18*len(engines))

	rl.DrawRectangle(panelX, panelY, panelW, panelH, rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawRectangleLines(panelX, panelY, panelW, panelH, rl.Yellow)

	rl.DrawText("DEBUG [D to close]", panelX+10, panelY+8, 14, rl.Yellow)

	y := panelY + 30
	for i, name := range w.scene.Layers() {
		e := engines[i]
		color := rl.Green
		if !e.Running() {
			color = rl.Gray
		}
		rl.DrawText(fmt.Sprintf("%-5s %4d  %s", name, e.Len(), e.Container()), panelX+10, y, 12, color)
		y += 18
	}

	stats := w.scene.Perf().Stats()
	rl.DrawText(fmt.Sprintf("Frame: %v  FPS: %.0f", stats.AvgFrameDuration.Round(time.Microsecond), stats.FPS), panelX+10, y+4, 12, rl.White)
	rl.DrawText("[Space] pause  [R] restart  [S] stop", panelX+10, y+20, 10, rl.LightGray)
}
