package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		secure   bool
		want     string
	}{
		{"default", "", false, "ws://127.0.0.1:8080/ws?mode=subscribe"},
		{"host port", "logs.internal:9000", false, "ws://logs.internal:9000/ws?mode=subscribe"},
		{"http becomes ws", "http://logs.internal", false, "ws://logs.internal/ws?mode=subscribe"},
		{"https becomes wss", "https://logs.internal", false, "wss://logs.internal/ws?mode=subscribe"},
		{"secure flag upgrades", "logs.internal:443", true, "wss://logs.internal:443/ws?mode=subscribe"},
		{"path and query replaced", "ws://h:1/other?x=1#frag", false, "ws://h:1/ws?mode=subscribe"},
		{"trims whitespace", "  wss://h  ", false, "wss://h/ws?mode=subscribe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ResolveEndpoint(tt.endpoint, tt.secure)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestResolveEndpoint_Rejects(t *testing.T) {
	_, err := ResolveEndpoint("ftp://h", false)
	assert.ErrorContains(t, err, "unsupported scheme")

	_, err = ResolveEndpoint("ws://", false)
	assert.ErrorContains(t, err, "missing host")
}
