package tracker

// Handle is a per-subject view over a tracker. It holds no state of its own,
// so any number of handles may exist for the same subject.
type Handle[K comparable, V any] struct {
	tracker *Tracker[K, V]
	subject K
}

// About returns a handle bound to subject.
func (t *Tracker[K, V]) About(subject K) *Handle[K, V] {
	return &Handle[K, V]{tracker: t, subject: subject}
}

// Subject returns the bound subject.
func (h *Handle[K, V]) Subject() K {
	return h.subject
}

// In reports whether the subject is in state.
func (h *Handle[K, V]) In(state string) (bool, error) {
	return h.tracker.InState(state, h.subject)
}

// Is is In for call sites that only deal with declared states; an unknown
// state reads as false.
func (h *Handle[K, V]) Is(state string) bool {
	ok, err := h.tracker.InState(state, h.subject)
	return err == nil && ok
}

// Get returns the subject's payload in state.
func (h *Handle[K, V]) Get(state string) (V, error) {
	return h.tracker.GetState(state, h.subject)
}

// Set places the subject in state with payload.
func (h *Handle[K, V]) Set(state string, payload V) error {
	return h.tracker.SetState(state, h.subject, payload)
}

// Mark places the subject in state with the zero payload.
func (h *Handle[K, V]) Mark(state string) error {
	return h.tracker.Mark(state, h.subject)
}

// Clear removes the subject from state.
func (h *Handle[K, V]) Clear(state string) error {
	return h.tracker.ClearSubject(state, h.subject)
}

// States returns the states the subject occupies in declaration order.
func (h *Handle[K, V]) States() []string {
	t := h.tracker
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, state := range t.states {
		if _, ok := t.partitions[state][h.subject]; ok {
			out = append(out, state)
		}
	}
	return out
}
