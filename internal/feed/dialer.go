package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 5 * time.Second
	defaultUserAgent = "contrail/0.1"
)

// Conn is the read side of a live subscription.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens subscriptions. This interface is implemented by
// *WebSocketDialer and can be replaced in tests.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Ensure WebSocketDialer implements Dialer at compile time.
var _ Dialer = (*WebSocketDialer)(nil)

// WebSocketDialer dials the stream with gorilla/websocket.
type WebSocketDialer struct {
	ws        *websocket.Dialer
	userAgent string
}

// NewWebSocketDialer builds a dialer with sane handshake limits.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		userAgent: defaultUserAgent,
	}
}

// Dial opens a websocket subscription.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	if d == nil || d.ws == nil {
		return nil, fmt.Errorf("dialer is nil")
	}
	header := http.Header{}
	header.Set("User-Agent", d.userAgent)

	conn, resp, err := d.ws.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, nil
}
