package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/goliatone/go-tracker/pkg/activity"
	"github.com/goliatone/go-tracker/pkg/storage"
)

func TestMutationsEmitActivityEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	store := storage.NewMemory[string, any]()
	tr, err := New[string, any]([]string{"foo", "bar"},
		WithStorage[string, any](store),
		WithActivityHooks(activity.Hooks{capture}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	mustSet(t, tr, "foo", "A", 1)
	mustSet(t, tr, "foo", "A", 2)
	mustSet(t, tr, "foo", "B", 0)
	if _, err := tr.PopState("foo", "A"); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if _, err := tr.FilterState("foo", nil); err != nil {
		t.Fatalf("filter: %v", err)
	}
	mustSet(t, tr, "bar", "C", true)
	if err := tr.ClearSubject("bar", "C"); err != nil {
		t.Fatalf("clear subject: %v", err)
	}
	if err := tr.ClearSubject("bar", "C"); err != nil {
		t.Fatalf("clear absent subject: %v", err)
	}
	if err := tr.ClearState("bar"); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	if err := tr.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := tr.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []string{
		activity.VerbStateSet,
		activity.VerbStateUpdated,
		activity.VerbStateSet,
		activity.VerbSubjectPopped,
		activity.VerbStateFiltered,
		activity.VerbStateSet,
		activity.VerbSubjectCleared,
		activity.VerbStateCleared,
		activity.VerbTrackerSaved,
		activity.VerbTrackerLoaded,
	}
	if got := capture.Verbs(); !slices.Equal(got, want) {
		t.Fatalf("unexpected verbs\n got: %v\nwant: %v", got, want)
	}

	popped := capture.Events[3]
	if popped.ObjectType != activity.ObjectSubject || popped.ObjectID != "A" || popped.State != "foo" {
		t.Fatalf("unexpected pop event %+v", popped)
	}
	if popped.Metadata["payload"] != 2 {
		t.Fatalf("expected popped payload in metadata, got %v", popped.Metadata)
	}
	filtered := capture.Events[4]
	if subjects, _ := filtered.Metadata["subjects"].([]string); !slices.Equal(subjects, []string{"B"}) {
		t.Fatalf("expected filtered subjects [B], got %v", filtered.Metadata)
	}
	for _, event := range capture.Events {
		if event.ID == "" || event.Channel != activity.DefaultChannel || event.OccurredAt.IsZero() {
			t.Fatalf("expected normalized event, got %+v", event)
		}
	}
}

func TestActivityConfigDefaultsAndDisable(t *testing.T) {
	capture := &activity.CaptureHook{}
	tr, err := New[string, any]([]string{"foo"},
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: true, Channel: "audit", ActorID: "system"}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mustSet(t, tr, "foo", "A", nil)
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	if event := capture.Events[0]; event.Channel != "audit" || event.ActorID != "system" {
		t.Fatalf("expected config defaults applied, got %+v", event)
	}

	capture.Reset()
	disabled, err := New[string, any]([]string{"foo"},
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityConfig(activity.Config{Enabled: false}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mustSet(t, disabled, "foo", "A", nil)
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emission must not notify hooks, got %d", len(capture.Events))
	}
}

func TestActivityHookFailureDoesNotFailMutation(t *testing.T) {
	boom := errors.New("sink down")
	var logged []LogEvent
	tr, err := New[string, any]([]string{"foo"},
		WithActivityHooks(activity.Hooks{&activity.CaptureHook{Err: boom}}),
		WithLogger(LoggerFunc(func(e LogEvent) { logged = append(logged, e) })),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := tr.SetState("foo", "A", 1); err != nil {
		t.Fatalf("set must succeed despite hook failure: %v", err)
	}
	if in, _ := tr.InState("foo", "A"); !in {
		t.Fatalf("mutation must be applied")
	}
	if len(logged) != 1 || logged[0].Op != "activity" || !errors.Is(logged[0].Err, boom) {
		t.Fatalf("expected hook failure to be logged, got %+v", logged)
	}
}

func TestSubjectFormatterRendersEventSubjects(t *testing.T) {
	type user struct{ ID int }
	capture := &activity.CaptureHook{}
	tr, err := New[user, any]([]string{"active"},
		WithActivityHooks(activity.Hooks{capture}),
		WithSubjectFormatter(func(subject any) string {
			return fmt.Sprintf("user-%d", subject.(user).ID)
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tr.Mark("active", user{ID: 7}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got := capture.Events[0].ObjectID; got != "user-7" {
		t.Fatalf("expected formatted subject, got %q", got)
	}
}
