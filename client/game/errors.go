package game

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when the control loop is no longer running.
var ErrStopped = errors.New("control loop stopped")

// ErrUnknownAction is returned for actions the authority does not know.
type ErrUnknownAction struct {
	Action string
}

func (e *ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Action)
}

func IsUnknownAction(err error) bool {
	var e *ErrUnknownAction
	return errors.As(err, &e)
}
