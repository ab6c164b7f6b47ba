package reconcile

import (
	"encoding/json"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/repositories"
)

// AssetCache is the part of the cache manager the engine drives.
type AssetCache interface {
	HighestCachedAssetID() (int64, bool)
	ReconcileAssetWindow(sessionID int64, queue []types.AssetRef, activeAssetID int64) bool
	Supersede(activeAssetID int64)
	Evict()
}

// Saver persists a value under key. Implementations must not block.
type Saver interface {
	Save(key string, value interface{})
}

// Engine accepts or rejects authority responses against the local state.
// It is not safe for concurrent use; all calls happen on the control thread.
type Engine struct {
	cache AssetCache
	saver Saver
	state LocalState
}

type NewEngineOptions struct {
	Cache AssetCache
	Saver Saver
}

func NewEngine(opts NewEngineOptions) *Engine {
	return &Engine{
		cache: opts.Cache,
		saver: opts.Saver,
	}
}

// Restore seeds the state from the persisted values. A load error leaves the
// state empty and surfaces a restore error message; the caller logs it.
func (e *Engine) Restore(saved map[string]json.RawMessage, loadErr error) {
	e.state = LocalState{}
	if loadErr != nil {
		e.state.ErrorMessage = constants.ErrorMessageRestore
		return
	}

	var game *types.GameSnapshot
	var participant *types.ParticipantSnapshot
	var errorMessage, pushToken string
	decoded := []struct {
		key   string
		value interface{}
	}{
		{repositories.KeyGame, &game},
		{repositories.KeyParticipant, &participant},
		{repositories.KeyErrorMessage, &errorMessage},
		{repositories.KeyPushToken, &pushToken},
	}
	for _, d := range decoded {
		raw, ok := saved[d.key]
		if !ok || len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, d.value); err != nil {
			log.Error("Failed to decode persisted %s: %v", d.key, err)
			e.state = LocalState{ErrorMessage: constants.ErrorMessageRestore}
			return
		}
	}

	e.state.Game = game
	e.state.Participant = participant
	e.state.ErrorMessage = errorMessage
	e.state.PushToken = pushToken
	if game != nil && game.TimeRemainingMs != nil {
		e.state.CountdownMs, _ = syncCountdown(nil, *game.TimeRemainingMs)
	}
	if game != nil {
		log.Info("Restored session %d in phase %s", game.ID, e.Phase())
	}
}

// State returns a copy of the local state.
func (e *Engine) State() LocalState {
	return e.state.Copy()
}

func (e *Engine) Phase() types.Phase {
	return types.PhaseOf(e.state.Game, e.state.Participant)
}

// SessionID returns the id of the local game, if any.
func (e *Engine) SessionID() (int64, bool) {
	if e.state.Game == nil {
		return 0, false
	}
	return e.state.Game.ID, true
}

// ParticipantID returns the id of the local participant, if any.
func (e *Engine) ParticipantID() (int64, bool) {
	if e.state.Participant == nil {
		return 0, false
	}
	return e.state.Participant.ID, true
}

// Apply validates envelope against the current state and merges it.
func (e *Engine) Apply(envelope *types.Envelope, action string, payload types.ActionPayload) (*AppliedDelta, error) {
	if msg := envelope.ErrorMessage(); msg != "" {
		e.state.NetworkError = false
		e.state.ErrorMessage = msg
		e.save(repositories.KeyErrorMessage, msg)
		log.Info("Authority rejected %s: %s", action, msg)
		return nil, &ErrRemote{Action: action, Message: msg}
	}

	if err := Validate(envelope, action, payload, e.state.Game, e.state.Participant); err != nil {
		e.logRejection(envelope, action, err)
		return nil, err
	}

	result := envelope.Result
	delta := &AppliedDelta{Action: action}
	previous := e.state.Game

	if result.Game != nil {
		e.state.Game = result.Game.Copy()
		delta.GameReplaced = true
		e.save(repositories.KeyGame, e.state.Game)
	}
	if result.Participant != nil || action == constants.ActionLogout {
		e.state.Participant = result.Participant.Copy()
		delta.ParticipantReplaced = true
		e.save(repositories.KeyParticipant, e.state.Participant)
	}
	if action != constants.ActionPollSnapshot && e.state.ErrorMessage != "" {
		e.state.ErrorMessage = ""
		e.save(repositories.KeyErrorMessage, "")
	}
	e.state.NetworkError = false

	if result.Game != nil {
		if result.Game.TimeRemainingMs != nil {
			e.state.CountdownMs, delta.CountdownSnapped = syncCountdown(e.state.CountdownMs, *result.Game.TimeRemainingMs)
		} else {
			e.state.CountdownMs = nil
		}
		delta.AssetAdvanced, delta.WindowTriggered = e.reconcileAssets(previous, e.state.Game)
	}

	delta.Phase = e.Phase()
	log.Debug("Applied %s: phase %s", action, delta.Phase)
	return delta, nil
}

// reconcileAssets notifies the cache of supersession and of a new asset window.
func (e *Engine) reconcileAssets(previous, current *types.GameSnapshot) (advanced bool, triggered bool) {
	if e.cache == nil {
		return false, false
	}

	active, ok := current.CurrentAssetID()
	if ok {
		prevActive, prevOK := previous.CurrentAssetID()
		if !prevOK || active > prevActive {
			advanced = true
			e.cache.Supersede(active)
		}
	}

	head, ok := current.QueueHead()
	if !ok {
		return advanced, false
	}
	watermark, hasWatermark := e.cache.HighestCachedAssetID()
	if !hasWatermark || head.ID > watermark {
		triggered = e.cache.ReconcileAssetWindow(current.ID, current.AssetQueue, active)
	}
	return advanced, triggered
}

func (e *Engine) logRejection(envelope *types.Envelope, action string, err error) {
	redacted, marshalErr := json.Marshal(types.RedactEnvelope(envelope))
	if marshalErr != nil {
		redacted = []byte("<unencodable>")
	}
	if action == constants.ActionLeaveSession {
		log.Info("%v; envelope: %s", err, redacted)
		return
	}
	log.Warn("%v; envelope: %s", err, redacted)
}

// ApplyNetworkError records a failed request.
func (e *Engine) ApplyNetworkError(action string, err error) {
	if !e.state.NetworkError {
		log.Warn("Network unavailable during %s: %v", action, err)
	}
	e.state.NetworkError = true
}

// Tick advances the local countdown by one step. It reports whether a
// countdown was present.
func (e *Engine) Tick() bool {
	if e.state.CountdownMs == nil {
		return false
	}
	e.state.CountdownMs = tickCountdown(e.state.CountdownMs)
	return true
}

// Reset returns to NoGame, clearing the session from memory, from the store
// and from the asset cache.
func (e *Engine) Reset() {
	if e.state.Game != nil {
		log.Info("Leaving session %d", e.state.Game.ID)
	}
	e.state = LocalState{PushToken: e.state.PushToken}
	e.save(repositories.KeyGame, nil)
	e.save(repositories.KeyParticipant, nil)
	e.save(repositories.KeyErrorMessage, "")
	if e.cache != nil {
		e.cache.Evict()
	}
}

// SetError sets the user-visible error message.
func (e *Engine) SetError(msg string) {
	e.state.ErrorMessage = msg
	e.save(repositories.KeyErrorMessage, msg)
}

// SetPushToken records the notification token sent with createParticipant.
func (e *Engine) SetPushToken(token string) {
	e.state.PushToken = token
	e.save(repositories.KeyPushToken, token)
}

func (e *Engine) save(key string, value interface{}) {
	if e.saver == nil {
		return
	}
	e.saver.Save(key, value)
}
