package network

import (
	"errors"
	"fmt"
	"time"
)

// ErrNetwork is returned when the authority could not be reached or sent
// something that is not a valid envelope.
type ErrNetwork struct {
	Action string
	Err    error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Action, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrTimeout is returned when the authority did not answer in time.
type ErrTimeout struct {
	Action  string
	Timeout time.Duration
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Action, e.Timeout)
}

// IsNetworkError reports whether err is an ErrNetwork or an ErrTimeout.
func IsNetworkError(err error) bool {
	var n *ErrNetwork
	return errors.As(err, &n) || IsTimeout(err)
}

func IsTimeout(err error) bool {
	var t *ErrTimeout
	return errors.As(err, &t)
}

// ErrConnectionClosedByClient is returned by requests made after Close.
type ErrConnectionClosedByClient struct{}

func (e *ErrConnectionClosedByClient) Error() string {
	return "connection closed by client"
}
