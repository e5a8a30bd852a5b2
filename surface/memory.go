package surface

// Element is an element held by a Memory surface.
type Element struct {
	Handle    Handle
	Spec      ElementSpec
	Transform Transform
	Applied   int // Number of Apply calls
}

// Memory is an in-process surface used for headless runs.
// It keeps elements in attach order. Detached slots are left nil and
// compacted once they outnumber the live elements.
type Memory struct {
	width, height float32
	next          Handle
	elements      []*Element
	index         map[Handle]int // position in elements
	holes         int

	// OnAttach, if set, runs after every Attach. Hosts use it to observe
	// element creation.
	OnAttach func(h Handle)
}

// NewMemory creates a memory surface with the given viewport.
func NewMemory(width, height float32) *Memory {
	return &Memory{
		width:  width,
		height: height,
		index:  make(map[Handle]int),
	}
}

// Viewport returns the current viewport size.
func (m *Memory) Viewport() (float32, float32) {
	return m.width, m.height
}

// SetViewport changes the viewport size.
func (m *Memory) SetViewport(width, height float32) {
	m.width, m.height = width, height
}

// Attach adds an element on top of the stack.
func (m *Memory) Attach(spec ElementSpec) Handle {
	m.next++
	el := &Element{
		Handle:    m.next,
		Spec:      spec,
		Transform: Transform{X: spec.X, Y: spec.Y, Scale: 1, Alpha: 1},
	}
	m.index[el.Handle] = len(m.elements)
	m.elements = append(m.elements, el)
	if m.OnAttach != nil {
		m.OnAttach(el.Handle)
	}
	return el.Handle
}

// Apply updates an element. Unknown handles are ignored.
func (m *Memory) Apply(h Handle, t Transform) {
	if i, ok := m.index[h]; ok {
		el := m.elements[i]
		el.Transform = t
		el.Applied++
	}
}

// Detach removes an element. Unknown handles are ignored.
func (m *Memory) Detach(h Handle) {
	i, ok := m.index[h]
	if !ok {
		return
	}
	delete(m.index, h)
	m.elements[i] = nil
	m.holes++
	if m.holes*2 > len(m.elements) {
		m.compact()
	}
}

func (m *Memory) compact() {
	live := m.elements[:0]
	for _, el := range m.elements {
		if el != nil {
			m.index[el.Handle] = len(live)
			live = append(live, el)
		}
	}
	clear(m.elements[len(live):])
	m.elements = live
	m.holes = 0
}

// Len returns the number of mounted elements.
func (m *Memory) Len() int {
	return len(m.index)
}

// Elements returns the mounted elements in stacking order.
func (m *Memory) Elements() []Element {
	out := make([]Element, 0, len(m.index))
	for _, el := range m.elements {
		if el != nil {
			out = append(out, *el)
		}
	}
	return out
}

// Get returns the element for h.
func (m *Memory) Get(h Handle) (Element, bool) {
	i, ok := m.index[h]
	if !ok {
		return Element{}, false
	}
	return *m.elements[i], true
}
