package reconcile

import "github.com/cbodonnell/reactions/pkg/game/types"

// LocalState is the engine-owned part of the local app state.
type LocalState struct {
	Game         *types.GameSnapshot
	Participant  *types.ParticipantSnapshot
	ErrorMessage string
	// NetworkError is set by a failed request and cleared by the next response
	NetworkError bool
	// CountdownMs is the locally predicted time left in the round
	CountdownMs *int64
	PushToken   string
}

func (s LocalState) Copy() LocalState {
	c := s
	c.Game = s.Game.Copy()
	c.Participant = s.Participant.Copy()
	if s.CountdownMs != nil {
		v := *s.CountdownMs
		c.CountdownMs = &v
	}
	return c
}

// AppliedDelta describes what an accepted envelope changed.
type AppliedDelta struct {
	Action              string `json:"action"`
	GameReplaced        bool   `json:"gameReplaced"`
	ParticipantReplaced bool   `json:"participantReplaced"`
	// AssetAdvanced is set when the live asset moved past the previous one
	AssetAdvanced bool `json:"assetAdvanced"`
	// WindowTriggered is set when a cache pass was started
	WindowTriggered  bool        `json:"windowTriggered"`
	CountdownSnapped bool        `json:"countdownSnapped"`
	Phase            types.Phase `json:"phase"`
}
