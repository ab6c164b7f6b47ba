package types

// Envelope is the response to every action sent to the authority. Exactly
// one of Error and Result is expected to be set.
type Envelope struct {
	Error  *string `json:"error"`
	Result *Result `json:"result"`
}

// ErrorMessage returns the authority's error message, or "" when none is set.
func (e *Envelope) ErrorMessage() string {
	if e == nil || e.Error == nil {
		return ""
	}
	return *e.Error
}

type Result struct {
	Game        *GameSnapshot        `json:"game,omitempty"`
	Participant *ParticipantSnapshot `json:"participant,omitempty"`
}

// ActionPayload carries the action-specific request fields. Unused fields
// are omitted on the wire.
type ActionPayload struct {
	JoinCode    string `json:"joinCode,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PushToken   string `json:"pushToken,omitempty"`
	ChoiceID    string `json:"choiceId,omitempty"`
	Round       *int   `json:"round,omitempty"`
	Submission  string `json:"submission,omitempty"`
	// AssetID names the asset a skip request refers to
	AssetID *int64 `json:"assetId,omitempty"`
}
