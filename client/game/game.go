package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/reactions/client/flow"
	"github.com/cbodonnell/reactions/client/network"
	"github.com/cbodonnell/reactions/pkg/cache"
	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/messages"
	"github.com/cbodonnell/reactions/pkg/queue"
	"github.com/cbodonnell/reactions/pkg/reconcile"
	"github.com/cbodonnell/reactions/pkg/state"
	"github.com/spf13/afero"
)

// Saver persists a value under key without blocking.
type Saver interface {
	Save(key string, value interface{})
}

// Game is the client runtime. A single control goroutine, run by Start,
// owns the engine and the cache manager; everything else reaches them by
// posting closures to its mailbox.
type Game struct {
	client       network.Client
	engine       *reconcile.Engine
	cache        *cache.Manager
	stateManager state.StateManager
	mailbox      queue.Queue[func()]
	stopped      chan struct{}
	appIsActive  bool
}

type NewGameOptions struct {
	Client       network.Client
	Fetcher      cache.Fetcher
	Fs           afero.Fs
	Saver        Saver
	StateManager state.StateManager
	MailboxSize  int
}

func NewGame(opts NewGameOptions) *Game {
	if opts.StateManager == nil {
		opts.StateManager = state.NewInMemoryStateManager()
	}
	g := &Game{
		client:       opts.Client,
		stateManager: opts.StateManager,
		mailbox:      queue.NewInMemoryQueue[func()](opts.MailboxSize),
		stopped:      make(chan struct{}),
		appIsActive:  true,
	}
	g.cache = cache.NewManager(cache.NewManagerOptions{
		Fs:       opts.Fs,
		Fetcher:  opts.Fetcher,
		Dispatch: g.Dispatch,
		Saver:    opts.Saver,
	})
	g.engine = reconcile.NewEngine(reconcile.NewEngineOptions{
		Cache: g.cache,
		Saver: opts.Saver,
	})
	return g
}

// Restore seeds the runtime from the persisted values. It must be called
// before Start.
func (g *Game) Restore(saved map[string]json.RawMessage, loadErr error) {
	g.engine.Restore(saved, loadErr)
	if loadErr == nil {
		g.cache.Restore(cacheEntries(saved))
	}
	g.publish()
}

// Start runs the control loop until ctx is done.
func (g *Game) Start(ctx context.Context) error {
	defer close(g.stopped)
	defer g.cache.Close()

	log.Info("Control loop started")
	g.publish()
	for {
		select {
		case <-ctx.Done():
			log.Info("Control loop stopped")
			return nil
		case fn := <-g.mailbox.Chan():
			fn()
		}
	}
}

// Dispatch runs fn on the control goroutine and waits until the view it
// produced is published. It must not be called from the control goroutine.
func (g *Game) Dispatch(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := g.mailbox.Enqueue(func() {
		defer close(done)
		fn()
		g.publish()
	}); err != nil {
		return fmt.Errorf("failed to enqueue command: %v", err)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-g.stopped:
		return ErrStopped
	}
}

// post queues fn on the control goroutine without waiting.
func (g *Game) post(fn func()) error {
	if err := g.mailbox.Enqueue(func() {
		fn()
		g.publish()
	}); err != nil {
		return fmt.Errorf("failed to enqueue command: %v", err)
	}
	return nil
}

// View returns the latest published view.
func (g *Game) View(ctx context.Context) (*state.View, error) {
	return g.stateManager.Get(ctx)
}

// PostAction sends action to the authority and applies the response.
func (g *Game) PostAction(ctx context.Context, action string, payload types.ActionPayload) (*reconcile.AppliedDelta, error) {
	if !constants.IsAction(action) {
		return nil, &ErrUnknownAction{Action: action}
	}
	return g.send(ctx, action, payload)
}

// Poll requests a fresh snapshot. It does nothing while no session is active.
func (g *Game) Poll(ctx context.Context) error {
	_, err := g.send(ctx, constants.ActionPollSnapshot, types.ActionPayload{})
	return err
}

// Tick advances the local countdown.
func (g *Game) Tick(ctx context.Context) error {
	return g.post(func() {
		g.engine.Tick()
	})
}

// SetAppIsActive records whether the view layer is in the foreground.
func (g *Game) SetAppIsActive(ctx context.Context, active bool) error {
	return g.Dispatch(ctx, func() {
		g.appIsActive = active
	})
}

func (g *Game) send(ctx context.Context, action string, payload types.ActionPayload) (*reconcile.AppliedDelta, error) {
	var req *messages.Request
	if err := g.Dispatch(ctx, func() {
		req = g.prepare(action, &payload)
	}); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, nil
	}

	envelope, sendErr := g.client.Send(ctx, req)

	var delta *reconcile.AppliedDelta
	var applyErr error
	// the response is applied even if the caller has gone away
	if err := g.Dispatch(context.WithoutCancel(ctx), func() {
		if sendErr != nil {
			g.engine.ApplyNetworkError(action, sendErr)
			applyErr = sendErr
		} else {
			delta, applyErr = g.engine.Apply(envelope, action, payload)
		}
		if action == constants.ActionLeaveSession {
			g.engine.Reset()
		}
	}); err != nil {
		return nil, err
	}
	return delta, applyErr
}

// prepare runs on the control goroutine and returns nil when the action
// should not be sent.
func (g *Game) prepare(action string, payload *types.ActionPayload) *messages.Request {
	switch action {
	case constants.ActionPollSnapshot:
		if _, ok := g.engine.SessionID(); !ok {
			return nil
		}
	case constants.ActionJoinSession, constants.ActionCreateSession:
		g.cache.Evict()
	case constants.ActionCreateParticipant:
		if payload.PushToken != "" {
			g.engine.SetPushToken(payload.PushToken)
		} else {
			payload.PushToken = g.engine.State().PushToken
		}
	case constants.ActionSkipAsset:
		// the skip names the asset on screen when the caller does not
		if payload.AssetID == nil {
			if id, ok := g.engine.State().Game.CurrentAssetID(); ok {
				payload.AssetID = &id
			}
		}
	}

	req := &messages.Request{
		Action:      action,
		Payload:     *payload,
		AppIsActive: g.appIsActive,
	}
	if id, ok := g.engine.SessionID(); ok {
		req.SessionID = &id
	}
	if id, ok := g.engine.ParticipantID(); ok {
		req.ParticipantID = &id
	}
	return req
}

// publish stores the current view for concurrent readers. It runs on the
// control goroutine.
func (g *Game) publish() {
	st := g.engine.State()
	phase := g.engine.Phase()
	view := &state.View{
		Phase:         phase,
		Mode:          flow.ModeFor(phase, st.NetworkError).String(),
		Game:          g.cache.AnnotateGame(st.Game),
		Participant:   st.Participant,
		ErrorMessage:  st.ErrorMessage,
		NetworkError:  st.NetworkError,
		CountdownMs:   st.CountdownMs,
		AppIsActive:   g.appIsActive,
		CacheEntries:  g.cache.Entries(),
		PendingAssets: g.cache.PendingIDs(),
		UpdatedAt:     time.Now(),
	}
	if watermark, ok := g.cache.HighestCachedAssetID(); ok {
		view.HighestCachedAssetID = &watermark
	}
	if err := g.stateManager.Set(context.Background(), view); err != nil {
		log.Error("Failed to publish view: %v", err)
	}
}
