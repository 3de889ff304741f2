package tracker

// Alias is a membership check for one fixed state, declared once and bound
// to trackers later:
//
//	var isActivated = tracker.IsAlias[string, any]("active")
//	ok, err := isActivated(t, "user-1")
type Alias[K comparable, V any] func(t *Tracker[K, V], subject K) (bool, error)

// IsAlias returns an Alias checking membership in state.
func IsAlias[K comparable, V any](state string) Alias[K, V] {
	return func(t *Tracker[K, V], subject K) (bool, error) {
		return t.InState(state, subject)
	}
}

// Bind fixes the tracker, returning a plain predicate over subjects. Errors,
// including an undeclared state, read as false.
func (a Alias[K, V]) Bind(t *Tracker[K, V]) func(subject K) bool {
	return func(subject K) bool {
		ok, err := a(t, subject)
		return err == nil && ok
	}
}
