package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  caquick.auth  ": "caquick.auth",
		"..caquick..":      "caquick",
		".":                "",
		"":                 "",
		" login/seller ":   "login_seller",
		"auth..refresh":    "auth.refresh",
		"multi  space":     "multi__space",
	}
	for input, want := range tests {
		assert.Equal(t, want, metricPath(input), "metricPath(%q)", input)
	}
}

func TestMergeTags(t *testing.T) {
	t.Parallel()

	base := map[string]string{"env": "prod", " service ": " auth-api "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	assert.Equal(t, []string{"env:stage", "result:success", "service:auth-api"}, mergeTags(base, local))
	assert.Nil(t, mergeTags(nil, nil))
}

func TestEncodeLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "caquick.auth.login:1|c|#result:denied",
		encodeLine("caquick", "auth.login", "1", "c", []string{"result:denied"}))
	assert.Equal(t, "auth.guard:2|c", encodeLine("", "auth.guard", "2", "c", nil))
	assert.Empty(t, encodeLine("caquick", " . ", "1", "c", nil))
}

func TestCleanTagsCopies(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod", "": "ignored"}
	cleaned := cleanTags(original)
	cleaned["env"] = "stage"

	assert.Equal(t, "prod", original["env"])
	assert.NotContains(t, cleaned, "")
	assert.NotNil(t, cleanTags(nil))
}

func TestClient_SendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled: true,
		Address: pc.LocalAddr().String(),
		Prefix:  "caquick",
		Service: "auth-api",
	})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	read := func() string {
		buf := make([]byte, 512)
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, readErr := pc.ReadFrom(buf)
		require.NoError(t, readErr)
		return string(buf[:n])
	}

	client.Count("auth.login", 1, map[string]string{"result": "success"})
	assert.Equal(t, "caquick.auth.login:1|c|#result:success,service:auth-api", read())

	client.Timing("auth.login.duration", 1500*time.Microsecond, nil)
	assert.Equal(t, "caquick.auth.login.duration:1.5|ms|#service:auth-api", read())

	client.Gauge("auth.sessions", 2.25, nil)
	assert.Equal(t, "caquick.auth.sessions:2.25|g|#service:auth-api", read())
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	require.True(t, client.Enabled())
	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
	require.NoError(t, client.Close())

	// Sending after close is a silent no-op.
	client.Count("auth.refresh", 1, nil)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
	nilClient.Count("auth.refresh", 1, nil)
}

func TestNewClient_DisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
}

func TestNewClient_DialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}
