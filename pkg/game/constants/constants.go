package constants

import "time"

const (
	// ActionCreateSession creates a new session hosted by this install
	ActionCreateSession = "createSession"
	// ActionJoinSession joins an existing session by join code
	ActionJoinSession = "joinSession"
	// ActionCreateParticipant registers the local participant in the joined session
	ActionCreateParticipant = "createParticipant"
	// ActionPollSnapshot is the silent periodic poll
	ActionPollSnapshot = "pollSnapshot"
	// ActionLeaveSession leaves the session and resets local state
	ActionLeaveSession = "leaveSession"
	// ActionSkipAsset asks the authority to skip the named asset
	ActionSkipAsset = "skipAsset"
	// ActionLogout drops the participant identity
	ActionLogout = "logout"
	// ActionStartSession starts the first round
	ActionStartSession = "startSession"
	// ActionChooseChoice picks a choice for the round
	ActionChooseChoice = "chooseChoice"
	// ActionSubmitResponse submits the participant's response for the round
	ActionSubmitResponse = "submitResponse"
	// ActionNextRound advances to the next round
	ActionNextRound = "nextRound"
	// ActionEndSession concludes the session
	ActionEndSession = "endSession"
)

// Actions lists every action the authority understands.
var Actions = []string{
	ActionCreateSession,
	ActionJoinSession,
	ActionCreateParticipant,
	ActionPollSnapshot,
	ActionLeaveSession,
	ActionSkipAsset,
	ActionLogout,
	ActionStartSession,
	ActionChooseChoice,
	ActionSubmitResponse,
	ActionNextRound,
	ActionEndSession,
}

// IsAction reports whether name is a known action.
func IsAction(name string) bool {
	for _, a := range Actions {
		if a == name {
			return true
		}
	}
	return false
}

const (
	// PollInterval is the period of the snapshot poll
	PollInterval = 1 * time.Second
	// CountdownInterval is the period of the local countdown tick
	CountdownInterval = 1 * time.Second
	// CountdownStepMs is subtracted from the countdown on every tick
	CountdownStepMs int64 = 1000
	// CountdownDriftMs is the largest drift tolerated before the local countdown snaps to the authority's
	CountdownDriftMs int64 = 2000
	// RequestTimeout bounds every call to the authority
	RequestTimeout = 10 * time.Second
	// SaveInterval is the period of the save worker flush
	SaveInterval = 250 * time.Millisecond
)

const (
	// ErrorMessageRestore is shown when the persisted session could not be loaded
	ErrorMessageRestore = "could not restore session"
)
