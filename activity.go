package tracker

import (
	"context"

	"github.com/goliatone/go-tracker/pkg/activity"
)

// WithActivityHooks attaches hooks notified on every mutation. Emission is
// enabled unless WithActivityConfig says otherwise.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *trackerConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig sets channel, actor and tenant defaults for emitted
// events and whether emission is enabled at all.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *trackerConfig) {
		cfg.activityConfig = config
		cfg.activityConfigSet = true
	}
}

// emitter turns tracker mutations into activity events. Hook failures are
// logged and never fail the mutation.
type emitter struct {
	events *activity.Emitter
	logger Logger
}

func newEmitter(cfg trackerConfig) emitter {
	config := cfg.activityConfig
	if !cfg.activityConfigSet {
		config.Enabled = true
	}
	logger := cfg.logger
	if logger == nil {
		logger = noopLogger{}
	}
	return emitter{
		events: activity.NewEmitter(cfg.activityHooks, config),
		logger: logger,
	}
}

func (e emitter) enabled() bool {
	return e.events.Enabled()
}

func (e emitter) emit(event activity.Event) {
	if !e.enabled() {
		return
	}
	if err := e.events.Emit(context.Background(), event); err != nil {
		e.logger.LogEvent(LogEvent{Op: "activity", State: event.State, Err: err})
	}
}

func (e emitter) stateSet(state, subject string, replaced bool, payload any) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildStateSetEvent(activity.StateEventInput{
		State:    state,
		Subject:  subject,
		Payload:  payload,
		Replaced: replaced,
	}))
}

func (e emitter) subjectCleared(state, subject string) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildSubjectClearedEvent(activity.StateEventInput{State: state, Subject: subject}))
}

func (e emitter) subjectPopped(state, subject string, payload any) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildSubjectPoppedEvent(activity.StateEventInput{State: state, Subject: subject, Payload: payload}))
}

func (e emitter) stateCleared(state string, count int) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildStateClearedEvent(activity.StateEventInput{State: state, Count: count}))
}

func (e emitter) stateFiltered(state string, subjects []string) {
	if !e.enabled() || len(subjects) == 0 {
		return
	}
	e.emit(activity.BuildStateFilteredEvent(activity.StateEventInput{
		State:    state,
		Count:    len(subjects),
		Subjects: subjects,
	}))
}

func (e emitter) loaded(count int) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildTrackerLoadedEvent(activity.StateEventInput{Count: count}))
}

func (e emitter) saved(count int) {
	if !e.enabled() {
		return
	}
	e.emit(activity.BuildTrackerSavedEvent(activity.StateEventInput{Count: count}))
}
