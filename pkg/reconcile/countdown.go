package reconcile

import "github.com/cbodonnell/reactions/pkg/game/constants"

// syncCountdown returns the countdown to keep given the local prediction and
// the authority's value. The local value is replaced only when there is none
// or it drifted by more than CountdownDriftMs.
func syncCountdown(local *int64, authoritative int64) (*int64, bool) {
	if authoritative < 0 {
		authoritative = 0
	}
	if local == nil {
		return &authoritative, true
	}
	diff := *local - authoritative
	if diff < 0 {
		diff = -diff
	}
	if diff > constants.CountdownDriftMs {
		return &authoritative, true
	}
	return local, false
}

// tickCountdown returns the countdown one step later, floored at zero.
func tickCountdown(local *int64) *int64 {
	if local == nil {
		return nil
	}
	next := *local - constants.CountdownStepMs
	if next < 0 {
		next = 0
	}
	return &next
}
