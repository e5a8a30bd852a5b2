package scene

import (
	"log/slog"

	"github.com/pthm-cable/halos/config"
)

// pollReload applies a pending override file change, if any.
func (s *Scene) pollReload() {
	if s.watcher == nil {
		return
	}
	select {
	case <-s.watcher.Changes():
		s.Reload()
	default:
	}
}

// Reload re-reads the override file and replaces every layer's engine.
// A file that fails to load leaves the running engines untouched.
func (s *Scene) Reload() {
	if s.opts.OverridePath == "" {
		return
	}
	o, err := config.LoadOverride(s.opts.OverridePath)
	if err != nil {
		slog.Error("override_reload_failed", "path", s.opts.OverridePath, "error", err)
		return
	}
	s.fileOverride = o
	s.startAll()
	slog.Info("override_reloaded", "path", s.opts.OverridePath, "layers", len(s.layers))
}
