package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the tracker.
const (
	VerbStateSet       = "tracker.state.set"
	VerbStateUpdated   = "tracker.state.updated"
	VerbStateCleared   = "tracker.state.cleared"
	VerbSubjectCleared = "tracker.subject.cleared"
	VerbSubjectPopped  = "tracker.subject.popped"
	VerbStateFiltered  = "tracker.state.filtered"
	VerbTrackerLoaded  = "tracker.loaded"
	VerbTrackerSaved   = "tracker.saved"
)

// Object types carried by tracker events.
const (
	ObjectSubject = "tracker.subject"
	ObjectState   = "tracker.state"
	ObjectTracker = "tracker"
)

// StateEventInput describes the common fields for tracker events.
type StateEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	State      string
	Subject    string
	Payload    any
	Replaced   bool
	Count      int
	Subjects   []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateSetEvent reports a subject entering a state, or having its
// payload replaced when input.Replaced is set.
func BuildStateSetEvent(input StateEventInput) Event {
	verb := VerbStateSet
	if input.Replaced {
		verb = VerbStateUpdated
	}
	return buildStateEvent(verb, ObjectSubject, input)
}

// BuildSubjectClearedEvent reports a subject leaving a state.
func BuildSubjectClearedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbSubjectCleared, ObjectSubject, input)
}

// BuildSubjectPoppedEvent reports a subject popped from a state.
func BuildSubjectPoppedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbSubjectPopped, ObjectSubject, input)
}

// BuildStateClearedEvent reports a whole state being emptied.
func BuildStateClearedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateCleared, ObjectState, input)
}

// BuildStateFilteredEvent reports subjects removed by a filter.
func BuildStateFilteredEvent(input StateEventInput) Event {
	return buildStateEvent(VerbStateFiltered, ObjectState, input)
}

// BuildTrackerLoadedEvent reports a completed load.
func BuildTrackerLoadedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbTrackerLoaded, ObjectTracker, input)
}

// BuildTrackerSavedEvent reports a completed save.
func BuildTrackerSavedEvent(input StateEventInput) Event {
	return buildStateEvent(VerbTrackerSaved, ObjectTracker, input)
}

func buildStateEvent(verb, objectType string, input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Payload != nil {
		metadata = ensureMetadata(metadata)
		metadata["payload"] = input.Payload
	}
	if input.Count > 0 {
		metadata = ensureMetadata(metadata)
		metadata["count"] = input.Count
	}
	if len(input.Subjects) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["subjects"] = append([]string{}, input.Subjects...)
	}

	state := strings.TrimSpace(input.State)
	objectID := strings.TrimSpace(input.Subject)
	if objectID == "" && objectType == ObjectState {
		objectID = state
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		State:      state,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
