package tracker

import (
	"errors"
	"slices"
	"testing"
)

func newTestTracker[V any](t *testing.T, states ...string) *Tracker[string, V] {
	t.Helper()
	tr, err := New[string, V](states)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	return tr
}

func TestNewRejectsInvalidStateDeclarations(t *testing.T) {
	cases := []struct {
		name   string
		states []string
	}{
		{name: "empty", states: nil},
		{name: "blank name", states: []string{"foo", " "}},
		{name: "duplicate", states: []string{"foo", "bar", "foo"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[string, any](tc.states)
			if !errors.Is(err, ErrInvalidStates) {
				t.Fatalf("expected ErrInvalidStates, got %v", err)
			}
		})
	}
}

func TestNewRejectsMismatchedStorageType(t *testing.T) {
	_, err := New[string, any]([]string{"foo"}, WithStorage[int, any](nil))
	if err != nil {
		t.Fatalf("nil storage should be ignored, got %v", err)
	}
	_, err = New[string, any]([]string{"foo"}, WithSubjectOrder(func(a, b int) int { return a - b }))
	if err == nil {
		t.Fatalf("expected error for subject order of the wrong type")
	}
}

func TestStatesPreservesDeclarationOrder(t *testing.T) {
	tr := newTestTracker[any](t, "foo", "bar", "baz")
	states := tr.States()
	if !slices.Equal(states, []string{"foo", "bar", "baz"}) {
		t.Fatalf("unexpected states %v", states)
	}
	states[0] = "mutated"
	if tr.States()[0] != "foo" {
		t.Fatalf("States must return a copy")
	}
	if !tr.Has("bar") || tr.Has("qux") {
		t.Fatalf("unexpected Has results")
	}
}

func TestExampleScenario(t *testing.T) {
	tr := newTestTracker[any](t, "foo", "bar", "baz")

	mustSet(t, tr, "foo", "A", nil)
	mustSet[any](t, tr, "bar", "B", map[string]any{"key": "value"})
	mustSet(t, tr, "baz", "C", nil)

	all := tr.All()
	if !all.Equal(Set[string]{"A": {}, "B": {}, "C": {}}) {
		t.Fatalf("unexpected All %v", all)
	}

	payload, err := tr.GetState("bar", "B")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if payload.(map[string]any)["key"] != "value" {
		t.Fatalf("unexpected payload %v", payload)
	}

	in, err := tr.InState("foo", "A")
	if err != nil || !in {
		t.Fatalf("expected A in foo, got %v %v", in, err)
	}
	in, err = tr.InState("foo", "B")
	if err != nil || in {
		t.Fatalf("expected B not in foo, got %v %v", in, err)
	}
}

func TestSetStateOverwritesPayload(t *testing.T) {
	tr := newTestTracker[int](t, "count")
	mustSet(t, tr, "count", "a", 1)
	mustSet(t, tr, "count", "a", 2)

	got, err := tr.GetState("count", "a")
	if err != nil || got != 2 {
		t.Fatalf("expected 2, got %v %v", got, err)
	}
	if n, _ := tr.Len("count"); n != 1 {
		t.Fatalf("expected a single entry, got %d", n)
	}
}

func TestMarkKeepsZeroPayloadMembership(t *testing.T) {
	tr := newTestTracker[int](t, "seen")
	if err := tr.Mark("seen", "a"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	in, err := tr.InState("seen", "a")
	if err != nil || !in {
		t.Fatalf("zero payload must still count as membership, got %v %v", in, err)
	}
	got, err := tr.GetState("seen", "a")
	if err != nil || got != 0 {
		t.Fatalf("expected zero payload, got %v %v", got, err)
	}
}

func TestGetStateMissingSubject(t *testing.T) {
	tr := newTestTracker[any](t, "foo")
	_, err := tr.GetState("foo", "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %T", err)
	}
	if stateErr.Op != "get" || stateErr.State != "foo" || stateErr.Subject != "ghost" {
		t.Fatalf("unexpected error metadata %+v", stateErr)
	}
}

func TestUnknownStateIsRejectedEverywhere(t *testing.T) {
	tr := newTestTracker[any](t, "foo")
	mustSet(t, tr, "foo", "A", 1)

	checks := map[string]func() error{
		"set":           func() error { return tr.SetState("nope", "A", 1) },
		"mark":          func() error { return tr.Mark("nope", "A") },
		"get":           func() error { return errOnly(tr.GetState("nope", "A")) },
		"entries":       func() error { return errOnly(tr.Entries("nope")) },
		"clear state":   func() error { return tr.ClearState("nope") },
		"clear subject": func() error { return tr.ClearSubject("nope", "A") },
		"pop":           func() error { return errOnly(tr.PopState("nope", "A")) },
		"members":       func() error { return errOnly(tr.Members("nope")) },
		"in":            func() error { return errOnly(tr.InState("nope", "A")) },
		"len":           func() error { return errOnly(tr.Len("nope")) },
		"filter":        func() error { return errOnly(tr.FilterState("nope", nil)) },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, ErrUnknownState) {
				t.Fatalf("expected ErrUnknownState, got %v", err)
			}
		})
	}

	if all := tr.All(); !all.Equal(Set[string]{"A": {}}) {
		t.Fatalf("failed operations must not change state, got %v", all)
	}
}

func TestEntriesYieldsSnapshot(t *testing.T) {
	tr := newTestTracker[int](t, "count")
	mustSet(t, tr, "count", "a", 1)
	mustSet(t, tr, "count", "b", 2)

	seq, err := tr.Entries("count")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	got := map[string]int{}
	for subject, payload := range seq {
		got[subject] = payload
		// mutating during iteration is safe and does not affect this range
		if err := tr.ClearSubject("count", subject); err != nil {
			t.Fatalf("clear: %v", err)
		}
	}
	if len(got) != 2 || got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("unexpected entries %v", got)
	}
	if n, _ := tr.Len("count"); n != 0 {
		t.Fatalf("expected partition emptied, got %d", n)
	}

	count := 0
	for range seq {
		count++
	}
	if count != 0 {
		t.Fatalf("a new range must see the current partition, got %d entries", count)
	}
}

func TestClearStateEmptiesOnlyThatState(t *testing.T) {
	tr := newTestTracker[any](t, "foo", "bar")
	mustSet(t, tr, "foo", "A", nil)
	mustSet(t, tr, "bar", "A", nil)

	if err := tr.ClearState("foo"); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	if n, _ := tr.Len("foo"); n != 0 {
		t.Fatalf("expected foo empty, got %d", n)
	}
	if in, _ := tr.InState("bar", "A"); !in {
		t.Fatalf("bar must be untouched")
	}
}

func TestClearSubjectIsIdempotent(t *testing.T) {
	tr := newTestTracker[any](t, "foo")
	mustSet(t, tr, "foo", "A", nil)

	for range 2 {
		if err := tr.ClearSubject("foo", "A"); err != nil {
			t.Fatalf("clear subject: %v", err)
		}
	}
	if in, _ := tr.InState("foo", "A"); in {
		t.Fatalf("expected A removed")
	}
}

func TestPopStateReturnsAndRemoves(t *testing.T) {
	tr := newTestTracker[string](t, "queue")
	mustSet(t, tr, "queue", "job-1", "payload")

	got, err := tr.PopState("queue", "job-1")
	if err != nil || got != "payload" {
		t.Fatalf("expected payload, got %q %v", got, err)
	}
	if in, _ := tr.InState("queue", "job-1"); in {
		t.Fatalf("expected job-1 removed")
	}
	if _, err := tr.PopState("queue", "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second pop, got %v", err)
	}
}

func TestMembersReturnsDetachedSet(t *testing.T) {
	tr := newTestTracker[any](t, "foo")
	mustSet(t, tr, "foo", "A", nil)
	mustSet(t, tr, "foo", "B", nil)

	members, err := tr.Members("foo")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if !members.Equal(Set[string]{"A": {}, "B": {}}) {
		t.Fatalf("unexpected members %v", members)
	}
	delete(members, "A")
	if in, _ := tr.InState("foo", "A"); !in {
		t.Fatalf("mutating the returned set must not affect the tracker")
	}
}

func TestAllIsUnionAcrossStates(t *testing.T) {
	tr := newTestTracker[any](t, "foo", "bar")
	if len(tr.All()) != 0 {
		t.Fatalf("expected empty tracker")
	}
	mustSet(t, tr, "foo", "A", nil)
	mustSet(t, tr, "bar", "A", nil)
	mustSet(t, tr, "bar", "B", nil)

	all := tr.All()
	if !all.Equal(Set[string]{"A": {}, "B": {}}) {
		t.Fatalf("unexpected All %v", all)
	}
	slice := all.Slice()
	slices.Sort(slice)
	if !slices.Equal(slice, []string{"A", "B"}) {
		t.Fatalf("unexpected slice %v", slice)
	}
}

func TestResetKeepsDeclaredStates(t *testing.T) {
	tr := newTestTracker[any](t, "foo", "bar")
	mustSet(t, tr, "foo", "A", nil)
	mustSet(t, tr, "bar", "B", nil)

	tr.Reset()
	if len(tr.All()) != 0 {
		t.Fatalf("expected empty tracker after reset")
	}
	mustSet(t, tr, "bar", "C", nil)
	if in, _ := tr.InState("bar", "C"); !in {
		t.Fatalf("states must remain usable after reset")
	}
}

func TestStructSubjects(t *testing.T) {
	type key struct {
		Org  string
		User int
	}
	tr, err := New[key, bool]([]string{"admin"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tr.SetState("admin", key{Org: "acme", User: 1}, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	in, err := tr.InState("admin", key{Org: "acme", User: 1})
	if err != nil || !in {
		t.Fatalf("expected struct key membership, got %v %v", in, err)
	}
}

func mustSet[V any](t *testing.T, tr *Tracker[string, V], state, subject string, payload V) {
	t.Helper()
	if err := tr.SetState(state, subject, payload); err != nil {
		t.Fatalf("set %s/%s: %v", state, subject, err)
	}
}

func errOnly[T any](_ T, err error) error {
	return err
}
