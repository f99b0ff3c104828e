package scene

// ComponentHandle is a non-owning reference to a component registered with a scene.
// A handle resolves only while the component is alive; once it is released the slot's
// generation moves on and every outstanding handle to it goes stale.
type ComponentHandle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h was never issued.
func (h ComponentHandle) IsZero() bool {
	return h.generation == 0
}

type slot struct {
	component  Component
	generation uint32
}

// arena stores the scene's live components. Freed slots are reused with a bumped generation.
type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) insert(c Component) ComponentHandle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].component = c
		return ComponentHandle{index: idx, generation: a.slots[idx].generation}
	}
	a.slots = append(a.slots, slot{component: c, generation: 1})
	return ComponentHandle{index: uint32(len(a.slots) - 1), generation: 1}
}

func (a *arena) get(h ComponentHandle) Component {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if s.generation != h.generation {
		return nil
	}
	return s.component
}

// remove frees the slot behind h and returns the component it held, or nil if h was stale.
func (a *arena) remove(h ComponentHandle) Component {
	c := a.get(h)
	if c == nil {
		return nil
	}
	s := &a.slots[h.index]
	s.component = nil
	s.generation++
	a.free = append(a.free, h.index)
	return c
}

func (a *arena) len() int {
	return len(a.slots) - len(a.free)
}

func (a *arena) reset() {
	for i := range a.slots {
		if a.slots[i].component != nil {
			a.slots[i].component = nil
			a.slots[i].generation++
			a.free = append(a.free, uint32(i))
		}
	}
}
