package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/messages"
)

// InstallIDHeader carries the install id on every request.
const InstallIDHeader = "X-Install-ID"

// Client sends actions to the authority. Send is safe for concurrent use
// and is bounded by the client's request timeout.
type Client interface {
	Send(ctx context.Context, req *messages.Request) (*types.Envelope, error)
	Close() error
}

type NewClientOptions struct {
	ServerURL  string
	Timeout    time.Duration
	InstallID  string
	HTTPClient *http.Client
}

// NewClient returns a websocket client for ws:// and wss:// server URLs and
// an HTTP client otherwise.
func NewClient(opts NewClientOptions) (Client, error) {
	u, err := url.Parse(opts.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %v", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.RequestTimeout
	}
	switch u.Scheme {
	case "ws", "wss":
		return NewWSClient(opts), nil
	case "http", "https":
		return NewHTTPClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported server url scheme: %s", u.Scheme)
	}
}

// sendError classifies a failed request.
func sendError(ctx context.Context, action string, timeout time.Duration, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &ErrTimeout{Action: action, Timeout: timeout}
	}
	return &ErrNetwork{Action: action, Err: err}
}
