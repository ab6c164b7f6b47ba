package network

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/messages"
)

// HTTPClient posts each action to <server>/api/<action>.
type HTTPClient struct {
	baseURL   string
	timeout   time.Duration
	installID string
	client    *http.Client
}

func NewHTTPClient(opts NewClientOptions) *HTTPClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &HTTPClient{
		baseURL:   strings.TrimSuffix(opts.ServerURL, "/"),
		timeout:   opts.Timeout,
		installID: opts.InstallID,
		client:    opts.HTTPClient,
	}
}

func (c *HTTPClient) Send(ctx context.Context, req *messages.Request) (*types.Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := messages.SerializeRequest(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/%s", c.baseURL, url.PathEscape(req.Action))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", messages.AcceptEncoding)
	if c.installID != "" {
		httpReq.Header.Set(InstallIDHeader, c.installID)
	}

	log.Trace("Sending %s to %s", req.Action, endpoint)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, sendError(ctx, req.Action, c.timeout, err)
	}
	defer resp.Body.Close()

	data, err := messages.Decompress(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, sendError(ctx, req.Action, c.timeout, err)
	}

	envelope, err := messages.DeserializeEnvelope(data)
	if err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &ErrNetwork{Action: req.Action, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		return nil, &ErrNetwork{Action: req.Action, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest && envelope.Error == nil {
		return nil, &ErrNetwork{Action: req.Action, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return envelope, nil
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
