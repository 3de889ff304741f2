package tracker

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/goliatone/go-tracker/pkg/storage"
)

// Save hands the subject universe and every partition to the configured
// storage. Subjects are ordered with WithSubjectOrder when set. Storage
// errors are returned unchanged.
func (t *Tracker[K, V]) Save(ctx context.Context) error {
	if t.storage == nil {
		return ErrNoStorage
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.RLock()
	subjects := t.allLocked().Slice()
	partitions := make(map[string]map[K]V, len(t.partitions))
	for state, partition := range t.partitions {
		partitions[state] = maps.Clone(partition)
	}
	t.mu.RUnlock()

	if t.order != nil {
		slices.SortFunc(subjects, t.order)
	}

	start := time.Now()
	err := t.storage.Save(ctx, subjects, partitions)
	t.logger().LogEvent(LogEvent{Op: "save", Count: len(subjects), Duration: time.Since(start), Err: err})
	if err != nil {
		return err
	}
	t.emitter.saved(len(subjects))
	return nil
}

// Load replays every persisted record into the tracker via SetState. Loading
// merges: existing memberships not present in storage are kept. Call Reset
// first for replace semantics.
//
// A record naming an undeclared state fails the load with ErrUnknownState,
// and one whose subject cannot key a map fails with
// storage.ErrUncomparableSubject. Records replayed before the failure stay
// applied and the failing record is skipped.
func (t *Tracker[K, V]) Load(ctx context.Context) error {
	if t.storage == nil {
		return ErrNoStorage
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	records, err := t.storage.Load(ctx)
	if err != nil {
		t.logger().LogEvent(LogEvent{Op: "load", Duration: time.Since(start), Err: err})
		return err
	}

	count := 0
	for subject, states := range records {
		if !storage.Comparable(subject) {
			err := &StateError{Op: "load", Subject: subject, Err: storage.ErrUncomparableSubject}
			t.logger().LogEvent(LogEvent{Op: "load", Count: count, Duration: time.Since(start), Err: err})
			return err
		}
		for state := range states {
			if !t.Has(state) {
				err := unknownState("load", state)
				t.logger().LogEvent(LogEvent{Op: "load", State: state, Count: count, Duration: time.Since(start), Err: err})
				return err
			}
		}
		for _, state := range t.states {
			payload, ok := states[state]
			if !ok {
				continue
			}
			if err := t.SetState(state, subject, payload); err != nil {
				return err
			}
		}
		count++
	}

	t.logger().LogEvent(LogEvent{Op: "load", Count: count, Duration: time.Since(start)})
	t.emitter.loaded(count)
	return nil
}
