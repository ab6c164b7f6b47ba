package repositories

import (
	"errors"
	"fmt"
)

// ErrStore is returned when the underlying store fails.
type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

func IsStoreError(err error) bool {
	var e *ErrStore
	return errors.As(err, &e)
}
