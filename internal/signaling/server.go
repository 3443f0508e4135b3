package signaling

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Path is the well-known rendezvous endpoint.
const Path = "/ws"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the answering side's websocket rendezvous point. It accepts one
// peer presenting the right PIN and hands its connection over as a Channel.
type Server struct {
	pin    string
	srv    *http.Server
	addr   net.Addr
	connCh chan *websocket.Conn

	accepted atomic.Bool
}

// NewServer creates a rendezvous server guarded by pin.
func NewServer(pin string) *Server {
	return &Server{
		pin:    pin,
		connCh: make(chan *websocket.Conn, 1),
	}
}

// Start listens on addr (":0" picks a random port) and serves Path in the
// background. Returns the bound port.
func (s *Server) Start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to start WS server: %w", err)
	}
	s.addr = listener.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWS)
	s.srv = &http.Server{Handler: mux}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = listener.Close()
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Addr returns the bound listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pin") != s.pin {
		http.Error(w, "Invalid PIN", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Only accept the first peer.
	if !s.accepted.CompareAndSwap(false, true) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
		return
	}
	s.connCh <- conn
}

// WaitForPeer blocks until a peer connects or ctx is cancelled.
func (s *Server) WaitForPeer(ctx context.Context) (Channel, error) {
	select {
	case conn := <-s.connCh:
		return NewWSChannel(conn), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting connections. Channels already handed out stay open.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

// Connect dials a rendezvous server. url must include the PIN, e.g.
//
//	wss://example.devtunnels.ms/ws?pin=1234
func Connect(ctx context.Context, url string) (Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WS server: %w", err)
	}
	return NewWSChannel(conn), nil
}

// GeneratePIN returns a random numeric PIN of the given length.
func GeneratePIN(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		digits[i] = byte('0') + byte(n.Int64())
	}
	return string(digits)
}
