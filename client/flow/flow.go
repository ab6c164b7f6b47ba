package flow

import "github.com/cbodonnell/reactions/pkg/game/types"

// GameMode is the screen the view layer should show.
type GameMode int

const (
	GameModeMenu GameMode = iota
	GameModePlay
	GameModeOver
	GameModeNetworkError
)

func (m GameMode) String() string {
	switch m {
	case GameModeMenu:
		return "Menu"
	case GameModePlay:
		return "Play"
	case GameModeOver:
		return "Over"
	case GameModeNetworkError:
		return "Network Error"
	}
	return "Unknown"
}

// ModeFor derives the mode from the session phase. A network error takes
// precedence while a session is active.
func ModeFor(phase types.Phase, networkError bool) GameMode {
	if phase == types.PhaseNoGame {
		return GameModeMenu
	}
	if networkError {
		return GameModeNetworkError
	}
	if phase == types.PhaseConcluded {
		return GameModeOver
	}
	return GameModePlay
}
