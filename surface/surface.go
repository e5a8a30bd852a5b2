// Package surface defines the mount contract halo engines draw onto.
package surface

import (
	"image/color"
	"sort"
)

// Handle identifies one element owned by a surface.
type Handle uint32

// ElementSpec describes a glow element at creation time.
type ElementSpec struct {
	Size    float32    // Diameter
	Color   color.RGBA // Center color; the gradient fades to transparent
	Blur    float32
	Opacity float32 // Static element opacity
	X, Y    float32 // Initial center
}

// Transform is the per-tick state applied to an element.
type Transform struct {
	X, Y  float32 // Center
	Scale float32
	Alpha float32 // Dynamic opacity, multiplied with the static opacity
}

// Surface is a drawing layer elements are attached to.
// Elements are stacked in attach order.
type Surface interface {
	// Viewport returns the current size of the area particles are placed in.
	Viewport() (width, height float32)
	Attach(spec ElementSpec) Handle
	Apply(h Handle, t Transform)
	Detach(h Handle)
}

// Lookup resolves a container id to a mounted surface.
type Lookup interface {
	Lookup(id string) (Surface, bool)
}

// Registry maps container ids to surfaces.
type Registry struct {
	surfaces map[string]Surface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[string]Surface)}
}

// Mount registers s under id, replacing any previous surface.
func (r *Registry) Mount(id string, s Surface) {
	r.surfaces[id] = s
}

// Unmount removes the surface registered under id.
func (r *Registry) Unmount(id string) {
	delete(r.surfaces, id)
}

// Lookup returns the surface registered under id.
func (r *Registry) Lookup(id string) (Surface, bool) {
	s, ok := r.surfaces[id]
	return s, ok
}

// IDs returns the mounted container ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.surfaces))
	for id := range r.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
