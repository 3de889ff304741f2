package tracker

import (
	"maps"
	"reflect"
	"time"
)

// FilterState removes every subject in state for which keep returns false
// and returns the removed subjects. A nil keep removes subjects whose payload
// is falsy (see Truthy). Decisions are made against a snapshot of the
// partition taken before anything is removed, and keep runs without the
// tracker lock held so it may read the tracker.
func (t *Tracker[K, V]) FilterState(state string, keep Predicate[K, V]) (Set[K], error) {
	if keep == nil {
		keep = func(_ K, payload V) bool { return Truthy(payload) }
	}
	return t.filter("filter", state, func(subject K, payload V) (bool, error) {
		return keep(subject, payload), nil
	})
}

func (t *Tracker[K, V]) snapshot(op, state string) (map[K]V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	partition, ok := t.partitions[state]
	if !ok {
		return nil, unknownState(op, state)
	}
	return maps.Clone(partition), nil
}

// filter decides on a snapshot, then removes the rejected subjects in one
// locked pass.
func (t *Tracker[K, V]) filter(op, state string, decide func(K, V) (bool, error)) (Set[K], error) {
	entries, err := t.snapshot(op, state)
	if err != nil {
		return nil, err
	}
	removed := Set[K]{}
	for subject, payload := range entries {
		keep, err := decide(subject, payload)
		if err != nil {
			return nil, err
		}
		if !keep {
			removed[subject] = struct{}{}
		}
	}

	t.mu.Lock()
	partition := t.partitions[state]
	for subject := range removed {
		delete(partition, subject)
	}
	t.mu.Unlock()

	t.afterFilter(state, removed)
	return removed, nil
}

func (t *Tracker[K, V]) afterFilter(state string, removed Set[K]) {
	t.logger().LogEvent(LogEvent{Op: "filter", State: state, Count: len(removed)})
	if !t.emitter.enabled() || len(removed) == 0 {
		return
	}
	subjects := make([]string, 0, len(removed))
	for subject := range removed {
		subjects = append(subjects, t.format(subject))
	}
	t.emitter.stateFiltered(state, subjects)
}

// Truthy reports whether value counts as set. nil, false, numeric zero, the
// empty string, empty slices, maps, arrays and channels, nil pointers and
// zero structs are falsy; everything else is truthy.
func Truthy(value any) bool {
	if value == nil {
		return false
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		return typed != ""
	case time.Time:
		return !typed.IsZero()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	default:
		return !rv.IsZero()
	}
}
