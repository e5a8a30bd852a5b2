package engine

import "log/slog"

// Host owns at most one engine per container and fans out host events.
type Host struct {
	engines map[string]*Engine
	order   []string
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{engines: make(map[string]*Engine)}
}

// Replace stops any engine already bound to e's container, binds e in its
// place and starts it. The result of e.Start is returned; an inert engine
// stays bound so a later Replace can supersede it.
func (h *Host) Replace(e *Engine) bool {
	id := e.Container()
	if prev, ok := h.engines[id]; ok {
		if prev != e {
			prev.Stop()
			slog.Info("halo_replaced", "container", id)
		}
	} else {
		h.order = append(h.order, id)
	}
	h.engines[id] = e
	return e.Start()
}

// Get returns the engine bound to container.
func (h *Host) Get(container string) (*Engine, bool) {
	e, ok := h.engines[container]
	return e, ok
}

// Engines returns the bound engines in first-bound order.
func (h *Host) Engines() []*Engine {
	out := make([]*Engine, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.engines[id])
	}
	return out
}

// Resize forwards a viewport change to every engine.
func (h *Host) Resize() {
	for _, id := range h.order {
		h.engines[id].OnResize()
	}
}

// StopAll stops every engine. Engines stay bound.
func (h *Host) StopAll() {
	for _, id := range h.order {
		h.engines[id].Stop()
	}
}
