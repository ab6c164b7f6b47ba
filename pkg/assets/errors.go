package assets

import (
	"errors"
	"fmt"
)

type FetchErrorKind int

const (
	// FetchErrorNoExtension means the source URL has no file extension
	FetchErrorNoExtension FetchErrorKind = iota
	// FetchErrorNetwork covers transport failures and unexpected HTTP statuses
	FetchErrorNetwork
	// FetchErrorIOFailure covers local filesystem failures
	FetchErrorIOFailure
	// FetchErrorCancelled means the download was cancelled before completion
	FetchErrorCancelled
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrorNoExtension:
		return "no extension"
	case FetchErrorNetwork:
		return "network"
	case FetchErrorIOFailure:
		return "io failure"
	case FetchErrorCancelled:
		return "cancelled"
	}
	return "unknown"
}

// FetchError is returned when an asset could not be made available locally.
type FetchError struct {
	Kind    FetchErrorKind
	AssetID int64
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch of asset %d failed: %s", e.AssetID, e.Kind)
	}
	return fmt.Sprintf("fetch of asset %d failed: %s: %v", e.AssetID, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a FetchError of the given kind.
func IsFetchError(err error, kind FetchErrorKind) bool {
	var e *FetchError
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func IsCancelled(err error) bool {
	return IsFetchError(err, FetchErrorCancelled)
}
