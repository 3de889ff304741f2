package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownState indicates an operation named a state outside the
	// declared set.
	ErrUnknownState = errors.New("tracker: unknown state")
	// ErrNotFound indicates the subject is not a member of the named state.
	ErrNotFound = errors.New("tracker: subject not in state")
	// ErrInvalidStates indicates New received an empty or duplicate state name.
	ErrInvalidStates = errors.New("tracker: invalid state declaration")
	// ErrNoStorage indicates Load or Save was called without a storage adapter.
	ErrNoStorage = errors.New("tracker: storage not configured")
)

// StateError carries the failing operation and state alongside the cause.
type StateError struct {
	Op      string
	State   string
	Subject any
	Err     error
}

func (e *StateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Subject != nil {
		return fmt.Sprintf("tracker: %s state=%q subject=%v: %v", e.Op, e.State, e.Subject, e.Err)
	}
	return fmt.Sprintf("tracker: %s state=%q: %v", e.Op, e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func unknownState(op, state string) error {
	return &StateError{Op: op, State: state, Err: ErrUnknownState}
}

func notFound(op, state string, subject any) error {
	return &StateError{Op: op, State: state, Subject: subject, Err: ErrNotFound}
}
