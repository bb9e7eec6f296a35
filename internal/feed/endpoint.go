package feed

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultEndpoint = "127.0.0.1:8080"
	subscribePath   = "/ws"
)

// ResolveEndpoint turns a configured endpoint into the subscription URL.
// Accepted forms are host:port, http(s)://host and ws(s)://host. Any path,
// query or fragment on the input is replaced with /ws?mode=subscribe.
func ResolveEndpoint(endpoint string, secure bool) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "ws://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", endpoint)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "http":
		u.Scheme = "ws"
	case "wss", "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("parse endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if secure {
		u.Scheme = "wss"
	}

	u.Path = subscribePath
	u.RawPath = ""
	u.RawQuery = url.Values{"mode": []string{"subscribe"}}.Encode()
	u.Fragment = ""
	return u, nil
}
