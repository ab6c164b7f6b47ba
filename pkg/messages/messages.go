package messages

import (
	"encoding/json"

	"github.com/cbodonnell/reactions/pkg/game/types"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1 << 20
)

// Message types exchanged over the websocket transport
const (
	MessageTypeClientRequest  = "request"
	MessageTypeServerResponse = "response"
	MessageTypeClientPing     = "ping"
	MessageTypeServerPong     = "pong"
)

// Request is a single action sent to the authority.
type Request struct {
	Action        string              `json:"action"`
	Payload       types.ActionPayload `json:"payload"`
	SessionID     *int64              `json:"sessionId,omitempty"`
	ParticipantID *int64              `json:"participantId,omitempty"`
	// AppIsActive reports whether the view layer is in the foreground
	AppIsActive bool `json:"appIsActive"`
}

// Message represents a websocket frame. Responses echo the RequestID of the
// request they answer.
type Message struct {
	RequestID string          `json:"requestId,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
