package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cbodonnell/reactions/client/network"
	"github.com/cbodonnell/reactions/pkg/api/handlers"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/reconcile"
	"github.com/cbodonnell/reactions/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	view     *state.View
	err      error
	action   string
	payload  types.ActionPayload
	isActive *bool
}

func (f *fakeRuntime) PostAction(ctx context.Context, action string, payload types.ActionPayload) (*reconcile.AppliedDelta, error) {
	f.action = action
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &reconcile.AppliedDelta{Action: action, GameReplaced: true, Phase: types.PhaseAwaitingParticipant}, nil
}

func (f *fakeRuntime) View(ctx context.Context) (*state.View, error) {
	return f.view, nil
}

func (f *fakeRuntime) SetAppIsActive(ctx context.Context, active bool) error {
	f.isActive = &active
	return nil
}

func newRuntime() *fakeRuntime {
	return &fakeRuntime{view: &state.View{
		Phase: types.PhaseAwaitingParticipant,
		Mode:  "Play",
		Game:  &types.GameSnapshot{ID: 42},
	}}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newRuntime()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetState(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newRuntime()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "AwaitingParticipant", body["phase"])
	assert.Equal(t, "Play", body["mode"])
}

func TestPostAction(t *testing.T) {
	runtime := newRuntime()
	srv := httptest.NewServer(NewRouter(runtime))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/actions/joinSession", "application/json", strings.NewReader(`{"joinCode":"ABCD"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.ActionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "joinSession", runtime.action)
	assert.Equal(t, "ABCD", runtime.payload.JoinCode)
	assert.True(t, body.Delta.GameReplaced)
	assert.Equal(t, types.PhaseAwaitingParticipant, body.Delta.Phase)
	assert.Equal(t, types.PhaseAwaitingParticipant, body.State.Phase)
	assert.Equal(t, int64(42), body.State.Game.ID)
}

func TestPostActionWithoutBody(t *testing.T) {
	runtime := newRuntime()
	srv := httptest.NewServer(NewRouter(runtime))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/actions/leaveSession", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "leaveSession", runtime.action)
}

func TestPostActionErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{name: "unknown action", path: "/actions/dance", status: http.StatusNotFound},
		{name: "bad payload", path: "/actions/joinSession", body: "{", status: http.StatusBadRequest},
		{name: "rejected", path: "/actions/pollSnapshot", err: &reconcile.ErrRejected{Action: "pollSnapshot", Reason: "stale"}, status: http.StatusConflict},
		{name: "remote", path: "/actions/joinSession", err: &reconcile.ErrRemote{Action: "joinSession", Message: "no such session"}, status: http.StatusUnprocessableEntity},
		{name: "timeout", path: "/actions/joinSession", err: &network.ErrTimeout{Action: "joinSession", Timeout: time.Second}, status: http.StatusGatewayTimeout},
		{name: "network", path: "/actions/joinSession", err: &network.ErrNetwork{Action: "joinSession", Err: errors.New("refused")}, status: http.StatusBadGateway},
		{name: "other", path: "/actions/joinSession", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := newRuntime()
			runtime.err = tt.err
			srv := httptest.NewServer(NewRouter(runtime))
			defer srv.Close()

			resp, err := http.Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSetAppState(t *testing.T) {
	runtime := newRuntime()
	srv := httptest.NewServer(NewRouter(runtime))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/app-state", strings.NewReader(`{"active":false}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NotNil(t, runtime.isActive)
	assert.False(t, *runtime.isActive)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newRuntime()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/actions/joinSession")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
