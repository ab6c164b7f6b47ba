package network

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSend(t *testing.T) {
	var got messages.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pollSnapshot", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "install-1", r.Header.Get(InstallIDHeader))
		assert.Equal(t, messages.AcceptEncoding, r.Header.Get("Accept-Encoding"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		compressed, err := messages.Compress([]byte(`{"error":null,"result":{"game":{"id":42}}}`), messages.EncodingZstd)
		require.NoError(t, err)
		w.Header().Set("Content-Encoding", messages.EncodingZstd)
		w.Write(compressed)
	}))
	defer server.Close()

	client, err := NewClient(NewClientOptions{ServerURL: server.URL + "/", Timeout: time.Second, InstallID: "install-1"})
	require.NoError(t, err)
	require.IsType(t, &HTTPClient{}, client)
	defer client.Close()

	sessionID := int64(42)
	envelope, err := client.Send(context.Background(), &messages.Request{
		Action:      constants.ActionPollSnapshot,
		SessionID:   &sessionID,
		AppIsActive: true,
	})
	require.NoError(t, err)
	require.NotNil(t, envelope.Result)
	assert.Equal(t, int64(42), envelope.Result.Game.ID)
	assert.Equal(t, constants.ActionPollSnapshot, got.Action)
	assert.Equal(t, int64(42), *got.SessionID)
	assert.True(t, got.AppIsActive)
}

func TestHTTPClientErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantTimeout bool
		wantNetwork bool
		wantMessage string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantNetwork: true,
		},
		{
			name: "error envelope with status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"error":"session is full","result":null}`))
			},
			wantMessage: "session is full",
		},
		{
			name: "invalid envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"result":{"game":{"id":"nope"}}}`))
			},
			wantNetwork: true,
		},
		{
			name: "gzip envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				compressed, _ := messages.Compress([]byte(`{"error":"bad code"}`), messages.EncodingGzip)
				w.Header().Set("Content-Encoding", messages.EncodingGzip)
				w.Write(compressed)
			},
			wantMessage: "bad code",
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantTimeout: true,
			wantNetwork: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewHTTPClient(NewClientOptions{ServerURL: server.URL, Timeout: 100 * time.Millisecond})
			envelope, err := client.Send(context.Background(), &messages.Request{Action: constants.ActionJoinSession})
			assert.Equal(t, tt.wantTimeout, IsTimeout(err))
			assert.Equal(t, tt.wantNetwork, IsNetworkError(err))
			if tt.wantMessage != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMessage, envelope.ErrorMessage())
			}
		})
	}
}

func TestNewClientScheme(t *testing.T) {
	client, err := NewClient(NewClientOptions{ServerURL: "ws://localhost:1/ws"})
	require.NoError(t, err)
	assert.IsType(t, &WSClient{}, client)

	_, err = NewClient(NewClientOptions{ServerURL: "ftp://localhost"})
	assert.Error(t, err)
}
