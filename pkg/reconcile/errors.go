package reconcile

import (
	"errors"
	"fmt"
)

// ErrRejected is returned when an envelope fails a consistency rule.
// The local state is left untouched.
type ErrRejected struct {
	Action string
	Reason string
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("envelope for %s rejected: %s", e.Action, e.Reason)
}

func IsRejected(err error) bool {
	var e *ErrRejected
	return errors.As(err, &e)
}

// ErrRemote is returned when the authority answered with an error message.
type ErrRemote struct {
	Action  string
	Message string
}

func (e *ErrRemote) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Action, e.Message)
}

func IsRemote(err error) bool {
	var e *ErrRemote
	return errors.As(err, &e)
}
