package reconcile

import (
	"fmt"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/game/types"
)

// Validate checks an envelope carrying a result against the local snapshots
// current at the time it is applied.
func Validate(envelope *types.Envelope, action string, payload types.ActionPayload, localGame *types.GameSnapshot, localParticipant *types.ParticipantSnapshot) error {
	if envelope == nil || envelope.Result == nil {
		return &ErrRejected{Action: action, Reason: "envelope has no result"}
	}
	incomingGame := envelope.Result.Game
	incomingParticipant := envelope.Result.Participant

	if action != constants.ActionLeaveSession && localGame != nil && incomingGame != nil && localGame.ID != incomingGame.ID {
		return &ErrRejected{Action: action, Reason: fmt.Sprintf("game id %d does not match local game %d", incomingGame.ID, localGame.ID)}
	}

	if action != constants.ActionLeaveSession && action != constants.ActionLogout &&
		localParticipant != nil && incomingParticipant != nil && localParticipant.ID != incomingParticipant.ID {
		return &ErrRejected{Action: action, Reason: fmt.Sprintf("participant id %d does not match local participant %d", incomingParticipant.ID, localParticipant.ID)}
	}

	if localGame == nil && incomingGame != nil && action != constants.ActionJoinSession && action != constants.ActionCreateSession {
		return &ErrRejected{Action: action, Reason: "game received without a joined session"}
	}

	localAsset, localOK := localGame.CurrentAssetID()
	incomingAsset, incomingOK := incomingGame.CurrentAssetID()
	if localOK && incomingOK && incomingAsset < localAsset {
		skipRace := action == constants.ActionSkipAsset && payload.AssetID != nil && *payload.AssetID != incomingAsset
		if !skipRace {
			return &ErrRejected{Action: action, Reason: fmt.Sprintf("asset %d is older than local asset %d", incomingAsset, localAsset)}
		}
	}

	return nil
}
