package tracker

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"strings"
	"sync"
)

// Tracker records membership of subjects in a fixed set of named states.
// Each state is an independent partition mapping subject to payload; a
// subject may be in any number of states at once.
type Tracker[K comparable, V any] struct {
	mu         sync.RWMutex
	states     []string
	partitions map[string]map[K]V

	cfg     trackerConfig
	storage Storage[K, V]
	order   func(a, b K) int
	emitter emitter
}

// New declares the tracker's states and applies opts. State names must be
// non-empty and unique; the declared order is preserved by States.
func New[K comparable, V any](states []string, opts ...Option) (*Tracker[K, V], error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: at least one state is required", ErrInvalidStates)
	}
	declared := make([]string, 0, len(states))
	partitions := make(map[string]map[K]V, len(states))
	for _, name := range states {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: state name must not be empty", ErrInvalidStates)
		}
		if _, exists := partitions[name]; exists {
			return nil, fmt.Errorf("%w: duplicate state %q", ErrInvalidStates, name)
		}
		partitions[name] = map[K]V{}
		declared = append(declared, name)
	}

	cfg := applyOptions(opts)
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}
	t := &Tracker[K, V]{
		states:     declared,
		partitions: partitions,
		cfg:        cfg,
	}
	if cfg.storage != nil {
		storage, ok := cfg.storage.(Storage[K, V])
		if !ok {
			return nil, fmt.Errorf("tracker: storage %T does not match tracker types", cfg.storage)
		}
		t.storage = storage
	}
	if cfg.subjectOrder != nil {
		order, ok := cfg.subjectOrder.(func(a, b K) int)
		if !ok {
			return nil, fmt.Errorf("tracker: subject order %T does not match tracker subject type", cfg.subjectOrder)
		}
		t.order = order
	}
	t.emitter = newEmitter(cfg)
	return t, nil
}

// States returns the declared state names in declaration order.
func (t *Tracker[K, V]) States() []string {
	return append([]string(nil), t.states...)
}

// Has reports whether state was declared.
func (t *Tracker[K, V]) Has(state string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.partitions[state]
	return ok
}

// SetState inserts or overwrites subject's entry in state with payload.
func (t *Tracker[K, V]) SetState(state string, subject K, payload V) error {
	t.mu.Lock()
	partition, ok := t.partitions[state]
	if !ok {
		t.mu.Unlock()
		return unknownState("set", state)
	}
	_, existed := partition[subject]
	partition[subject] = payload
	t.mu.Unlock()

	t.emitter.stateSet(state, t.format(subject), existed, payload)
	return nil
}

// Mark places subject in state with the zero payload.
func (t *Tracker[K, V]) Mark(state string, subject K) error {
	var zero V
	return t.SetState(state, subject, zero)
}

// GetState returns subject's payload in state, or ErrNotFound when the
// subject is not a member.
func (t *Tracker[K, V]) GetState(state string, subject K) (V, error) {
	var zero V
	t.mu.RLock()
	defer t.mu.RUnlock()
	partition, ok := t.partitions[state]
	if !ok {
		return zero, unknownState("get", state)
	}
	payload, ok := partition[subject]
	if !ok {
		return zero, notFound("get", state, subject)
	}
	return payload, nil
}

// Entries returns a sequence of every (subject, payload) pair in state. The
// sequence ranges over a snapshot taken when it starts, so each range sees a
// fresh view and may mutate the tracker freely.
func (t *Tracker[K, V]) Entries(state string) (iter.Seq2[K, V], error) {
	if !t.Has(state) {
		return nil, unknownState("entries", state)
	}
	return func(yield func(K, V) bool) {
		t.mu.RLock()
		snapshot := maps.Clone(t.partitions[state])
		t.mu.RUnlock()
		for subject, payload := range snapshot {
			if !yield(subject, payload) {
				return
			}
		}
	}, nil
}

// ClearState removes every subject from state.
func (t *Tracker[K, V]) ClearState(state string) error {
	t.mu.Lock()
	partition, ok := t.partitions[state]
	if !ok {
		t.mu.Unlock()
		return unknownState("clear", state)
	}
	removed := len(partition)
	t.partitions[state] = map[K]V{}
	t.mu.Unlock()

	t.emitter.stateCleared(state, removed)
	return nil
}

// ClearSubject removes subject from state. Absent subjects are ignored.
func (t *Tracker[K, V]) ClearSubject(state string, subject K) error {
	t.mu.Lock()
	partition, ok := t.partitions[state]
	if !ok {
		t.mu.Unlock()
		return unknownState("clear", state)
	}
	_, present := partition[subject]
	delete(partition, subject)
	t.mu.Unlock()

	if present {
		t.emitter.subjectCleared(state, t.format(subject))
	}
	return nil
}

// PopState removes subject from state and returns its payload, or
// ErrNotFound when the subject is not a member.
func (t *Tracker[K, V]) PopState(state string, subject K) (V, error) {
	var zero V
	t.mu.Lock()
	partition, ok := t.partitions[state]
	if !ok {
		t.mu.Unlock()
		return zero, unknownState("pop", state)
	}
	payload, ok := partition[subject]
	if !ok {
		t.mu.Unlock()
		return zero, notFound("pop", state, subject)
	}
	delete(partition, subject)
	t.mu.Unlock()

	t.emitter.subjectPopped(state, t.format(subject), payload)
	return payload, nil
}

// Members returns the subjects currently in state.
func (t *Tracker[K, V]) Members(state string) (Set[K], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	partition, ok := t.partitions[state]
	if !ok {
		return nil, unknownState("members", state)
	}
	out := make(Set[K], len(partition))
	for subject := range partition {
		out[subject] = struct{}{}
	}
	return out, nil
}

// InState reports whether subject is a member of state. Membership is key
// presence; a zero payload still counts.
func (t *Tracker[K, V]) InState(state string, subject K) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	partition, ok := t.partitions[state]
	if !ok {
		return false, unknownState("in", state)
	}
	_, present := partition[subject]
	return present, nil
}

// Len returns the number of subjects in state.
func (t *Tracker[K, V]) Len(state string) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	partition, ok := t.partitions[state]
	if !ok {
		return 0, unknownState("len", state)
	}
	return len(partition), nil
}

// All returns the union of subjects across every state.
func (t *Tracker[K, V]) All() Set[K] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allLocked()
}

func (t *Tracker[K, V]) allLocked() Set[K] {
	out := Set[K]{}
	for _, partition := range t.partitions {
		for subject := range partition {
			out[subject] = struct{}{}
		}
	}
	return out
}

// Reset empties every partition. The declared states are unchanged.
func (t *Tracker[K, V]) Reset() {
	t.mu.Lock()
	for _, state := range t.states {
		t.partitions[state] = map[K]V{}
	}
	t.mu.Unlock()
}

func (t *Tracker[K, V]) format(subject K) string {
	if t.cfg.formatter != nil {
		return t.cfg.formatter(subject)
	}
	return fmt.Sprint(subject)
}
