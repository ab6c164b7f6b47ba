package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// wsAuthority answers every request with the session id it names. With
// closeAfter set, it drops the connection after that many responses.
type wsAuthority struct {
	connections atomic.Int32
	installID   atomic.Value
	closeAfter  int
	silent      bool
}

func (a *wsAuthority) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.connections.Add(1)
	a.installID.Store(r.Header.Get(InstallIDHeader))
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	for served := 0; a.closeAfter == 0 || served < a.closeAfter; served++ {
		msg := &messages.Message{}
		if err := wsjson.Read(ctx, conn, msg); err != nil {
			return
		}
		if a.silent {
			continue
		}
		req := &messages.Request{}
		if err := json.Unmarshal(msg.Payload, req); err != nil {
			return
		}
		payload := []byte(fmt.Sprintf(`{"result":{"game":{"id":%d}}}`, *req.SessionID))
		if err := wsjson.Write(ctx, conn, &messages.Message{
			RequestID: msg.RequestID,
			Type:      messages.MessageTypeServerResponse,
			Payload:   payload,
		}); err != nil {
			return
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func pollRequest(sessionID int64) *messages.Request {
	return &messages.Request{Action: constants.ActionPollSnapshot, SessionID: &sessionID}
}

func TestWSClientSend(t *testing.T) {
	authority := &wsAuthority{}
	server := httptest.NewServer(authority)
	defer server.Close()

	client := NewWSClient(NewClientOptions{ServerURL: wsURL(server), Timeout: 2 * time.Second, InstallID: "install-1"})
	defer client.Close()

	results := make(chan int64, 3)
	for _, id := range []int64{41, 42, 43} {
		go func(id int64) {
			envelope, err := client.Send(context.Background(), pollRequest(id))
			if err != nil {
				results <- -1
				return
			}
			results <- envelope.Result.Game.ID
		}(id)
	}
	got := map[int64]bool{}
	for i := 0; i < 3; i++ {
		got[<-results] = true
	}
	assert.Equal(t, map[int64]bool{41: true, 42: true, 43: true}, got)
	assert.Equal(t, "install-1", authority.installID.Load())
}

func TestWSClientReconnects(t *testing.T) {
	authority := &wsAuthority{closeAfter: 1}
	server := httptest.NewServer(authority)
	defer server.Close()

	client := NewWSClient(NewClientOptions{ServerURL: wsURL(server), Timeout: 2 * time.Second})
	defer client.Close()

	envelope, err := client.Send(context.Background(), pollRequest(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), envelope.Result.Game.ID)

	// the first connection is dropped by the server; a later send redials
	require.Eventually(t, func() bool {
		envelope, err := client.Send(context.Background(), pollRequest(42))
		return err == nil && envelope.Result.Game.ID == 42
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, authority.connections.Load(), int32(2))
}

func TestWSClientTimeout(t *testing.T) {
	server := httptest.NewServer(&wsAuthority{silent: true})
	defer server.Close()

	client := NewWSClient(NewClientOptions{ServerURL: wsURL(server), Timeout: 100 * time.Millisecond})
	defer client.Close()

	_, err := client.Send(context.Background(), pollRequest(42))
	assert.True(t, IsTimeout(err))
}

func TestWSClientClosed(t *testing.T) {
	client := NewWSClient(NewClientOptions{ServerURL: "ws://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	require.NoError(t, client.Close())

	_, err := client.Send(context.Background(), pollRequest(42))
	assert.True(t, IsNetworkError(err))
}
