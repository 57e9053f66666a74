// ABOUTME: WebSocket dialer for the chat connection
// ABOUTME: Builds the endpoint URL with nickname/room query parameters
package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/aeolun/parley/pkg/protocol"
)

// Inbound frames are capped a little above the image limit so a maximal
// upload echoed by the server still fits.
const maxFrameBytes = protocol.MaxImageBytes + 64*1024

// NewWebSocketConnection builds a Connection that dials a websocket chat
// endpoint. The nickname and initial room ride along as query parameters,
// which is how the server identifies the session.
func NewWebSocketConnection(rawURL, nickname, room string) (*Connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid server URL scheme %q (must be ws or wss)", u.Scheme)
	}
	if u.Path == "" {
		u.Path = "/ws"
	}

	q := u.Query()
	q.Set("nickname", nickname)
	q.Set("room", room)
	u.RawQuery = q.Encode()

	dialer := &websocket.Dialer{
		HandshakeTimeout: defaultConnectTimeout,
		ReadBufferSize:   1024 * 1024,
		WriteBufferSize:  1024 * 1024,
	}

	target := u.String()
	display := u.Host

	dial := func(ctx context.Context) (Transport, error) {
		conn, resp, err := dialer.DialContext(ctx, target, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("dial %s: %w (HTTP %d)", display, err, resp.StatusCode)
			}
			return nil, fmt.Errorf("dial %s: %w", display, err)
		}
		conn.SetReadLimit(maxFrameBytes)
		return conn, nil
	}

	return NewConnection(display, dial), nil
}
