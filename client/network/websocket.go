package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/messages"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WSClient sends actions over a persistent websocket connection. The
// connection is opened on first use and reopened after it drops.
// Responses are matched to requests by request id.
type WSClient struct {
	serverURL string
	timeout   time.Duration
	installID string

	lock    sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	pending map[string]chan wsResult
	closed  bool
}

type wsResult struct {
	envelope *types.Envelope
	err      error
}

func NewWSClient(opts NewClientOptions) *WSClient {
	return &WSClient{
		serverURL: opts.ServerURL,
		timeout:   opts.Timeout,
		installID: opts.InstallID,
		pending:   make(map[string]chan wsResult),
	}
}

// connect returns the current connection, dialing a new one if needed.
func (c *WSClient) connect(ctx context.Context) (*websocket.Conn, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil, &ErrConnectionClosedByClient{}
	}
	if c.conn != nil {
		return c.conn, nil
	}

	log.Info("Connecting to WebSocket server at %s", c.serverURL)
	header := http.Header{}
	if c.installID != "" {
		header.Set(InstallIDHeader, c.installID)
	}
	conn, _, err := websocket.Dial(ctx, c.serverURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %v", err)
	}
	conn.SetReadLimit(messages.MessageBufferSize)

	readCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	go c.handleMessages(readCtx, conn)
	return conn, nil
}

// handleMessages reads responses until the connection fails.
func (c *WSClient) handleMessages(ctx context.Context, conn *websocket.Conn) {
	for {
		msg := &messages.Message{}
		if err := wsjson.Read(ctx, conn, msg); err != nil {
			log.Debug("WebSocket connection closed: %v", err)
			c.dropConnection(conn, err)
			return
		}
		if err := c.handleMessage(msg); err != nil {
			log.Error("Failed to handle message: %v", err)
		}
	}
}

func (c *WSClient) handleMessage(msg *messages.Message) error {
	switch msg.Type {
	case messages.MessageTypeServerResponse:
	case messages.MessageTypeServerPong:
		log.Debug("Received server pong")
		return nil
	default:
		return fmt.Errorf("received unexpected message type from WebSocket server: %s", msg.Type)
	}

	c.lock.Lock()
	ch, ok := c.pending[msg.RequestID]
	delete(c.pending, msg.RequestID)
	c.lock.Unlock()
	if !ok {
		return fmt.Errorf("received response for unknown request %s", msg.RequestID)
	}

	envelope, err := messages.DeserializeEnvelope(msg.Payload)
	ch <- wsResult{envelope: envelope, err: err}
	return nil
}

// dropConnection forgets conn and fails every request waiting on it.
func (c *WSClient) dropConnection(conn *websocket.Conn, cause error) {
	c.lock.Lock()
	if c.conn != conn {
		c.lock.Unlock()
		return
	}
	cancel := c.cancel
	pending := c.pending
	c.conn = nil
	c.cancel = nil
	c.pending = make(map[string]chan wsResult)
	c.lock.Unlock()

	cancel()
	conn.Close(websocket.StatusGoingAway, "")
	for _, ch := range pending {
		ch <- wsResult{err: fmt.Errorf("connection lost: %v", cause)}
	}
}

func (c *WSClient) Send(ctx context.Context, req *messages.Request) (*types.Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, sendError(ctx, req.Action, c.timeout, err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %v", err)
	}
	requestID := uuid.NewString()
	ch := make(chan wsResult, 1)
	c.lock.Lock()
	c.pending[requestID] = ch
	c.lock.Unlock()
	defer func() {
		c.lock.Lock()
		delete(c.pending, requestID)
		c.lock.Unlock()
	}()

	msg := &messages.Message{
		RequestID: requestID,
		Type:      messages.MessageTypeClientRequest,
		Payload:   payload,
	}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		c.dropConnection(conn, err)
		return nil, sendError(ctx, req.Action, c.timeout, err)
	}

	select {
	case <-ctx.Done():
		return nil, sendError(ctx, req.Action, c.timeout, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, &ErrNetwork{Action: req.Action, Err: result.err}
		}
		return result.envelope, nil
	}
}

// Close closes the connection; further requests fail.
func (c *WSClient) Close() error {
	c.lock.Lock()
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	c.lock.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close(websocket.StatusNormalClosure, "")
	cancel()
	return err
}
