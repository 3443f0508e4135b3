package signaling

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, pin string) (*Server, string) {
	t.Helper()
	srv := NewServer(pin)
	assert.Nil(t, srv.Addr())
	port, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	require.NotNil(t, srv.Addr())
	require.Equal(t, port, srv.Addr().(*net.TCPAddr).Port)
	t.Cleanup(func() { srv.Close() })
	return srv, fmt.Sprintf("ws://127.0.0.1:%d%s", port, Path)
}

func TestServerExchangesMessages(t *testing.T) {
	srv, url := startServer(t, "1234")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, url+"?pin=1234")
	require.NoError(t, err)
	defer client.Close()

	host, err := srv.WaitForPeer(ctx)
	require.NoError(t, err)
	defer host.Close()

	require.NoError(t, client.Send(OfferMessage("b2ZmZXI=")))
	msg, err := host.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindOffer, msg.Kind())
	assert.Equal(t, "b2ZmZXI=", msg.Payload())

	require.NoError(t, host.Send(AnswerMessage("YW5zd2Vy")))
	msg, err = client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindAnswer, msg.Kind())

	// Closing one side ends the other's read loop.
	require.NoError(t, host.Close())
	_, err = client.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWSCancelledReceiveKeepsMessage(t *testing.T) {
	srv, url := startServer(t, "55")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, url+"?pin=55")
	require.NoError(t, err)
	defer client.Close()

	host, err := srv.WaitForPeer(ctx)
	require.NoError(t, err)
	defer host.Close()

	short, stop := context.WithTimeout(ctx, 20*time.Millisecond)
	_, err = host.Receive(short)
	stop()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, client.Send(CandidateMessage("c")))
	msg, err := host.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindCandidate, msg.Kind())
}

func TestServerAcceptsTextFrames(t *testing.T) {
	srv, url := startServer(t, "42")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, _, err := websocket.DefaultDialer.DialContext(ctx, url+"?pin=42", nil)
	require.NoError(t, err)
	defer raw.Close()

	host, err := srv.WaitForPeer(ctx)
	require.NoError(t, err)
	defer host.Close()

	require.NoError(t, raw.WriteMessage(websocket.TextMessage, []byte(`{"hello":1}`)))
	require.NoError(t, raw.WriteMessage(websocket.TextMessage, []byte(`{"candidate":"{}"}`)))

	_, err = host.Receive(ctx)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	msg, err := host.Receive(ctx)
	require.NoError(t, err, "a malformed frame does not end the channel")
	assert.Equal(t, KindCandidate, msg.Kind())
}

func TestServerRejectsWrongPIN(t *testing.T) {
	_, url := startServer(t, "1234")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.DefaultDialer.DialContext(ctx, url+"?pin=0000", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerAcceptsOnlyFirstPeer(t *testing.T) {
	srv, url := startServer(t, "7")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := Connect(ctx, url+"?pin=7")
	require.NoError(t, err)
	defer first.Close()

	host, err := srv.WaitForPeer(ctx)
	require.NoError(t, err)
	defer host.Close()

	second, _, err := websocket.DefaultDialer.DialContext(ctx, url+"?pin=7", nil)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestWaitForPeerHonorsContext(t *testing.T) {
	srv, _ := startServer(t, "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.WaitForPeer(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratePIN(t *testing.T) {
	pin := GeneratePIN(6)
	assert.Len(t, pin, 6)
	for _, r := range pin {
		assert.True(t, r >= '0' && r <= '9')
	}
}
