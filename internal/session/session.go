// Package session negotiates one peer-to-peer connection over a signaling
// channel and exposes its data channel once the engine opens it.
//
// Engine callbacks, inbound signaling messages and caller requests are all
// turned into events handled by a single goroutine, so the handshake state
// is never touched concurrently.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/channel"
	"github.com/1ureka/rtcshake/internal/engine"
	"github.com/1ureka/rtcshake/internal/signaling"
	"github.com/1ureka/rtcshake/internal/util"
)

const eventQueueSize = 256

// Session is one peer connection handshake and the data channel it carries.
type Session struct {
	role Role
	eng  engine.Engine
	sig  signaling.Channel
	ch   *channel.Handle

	events    chan event
	quit      chan struct{}
	connected chan struct{}

	state    atomic.Int32
	stopRead context.CancelFunc

	// Owned by the loop goroutine.
	remoteSet   bool
	pending     []webrtc.ICECandidateInit
	isConnected bool
	err         error
}

// New creates a session on sig. The offering side creates the data channel
// immediately, which makes the engine request negotiation; the answering side
// waits for an offer. New does not send anything itself.
//
// Cancelling ctx closes the session. sig is not owned by the session, but its
// closure ends the session.
func New(ctx context.Context, sig signaling.Channel, cfg Config, opts ...Option) (*Session, error) {
	o := options{random: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	label, err := cfg.Channel.ResolveLabel(o.random)
	if err != nil {
		return nil, engineErr("create session", err)
	}

	eng := o.engine
	if eng == nil {
		if eng, err = engine.NewPeerConnection(cfg.ICEServers); err != nil {
			return nil, engineErr("create session", err)
		}
	}

	s := &Session{
		role:      cfg.Role,
		eng:       eng,
		sig:       sig,
		ch:        channel.NewHandle(cfg.Channel, label),
		events:    make(chan event, eventQueueSize),
		quit:      make(chan struct{}),
		connected: make(chan struct{}),
	}

	eng.OnNegotiationNeeded(func() { s.post(negotiationNeeded{}) })
	eng.OnICECandidate(func(c *webrtc.ICECandidateInit) { s.post(candidateDiscovered{c}) })
	eng.OnICEConnectionStateChange(func(st webrtc.ICEConnectionState) { s.post(iceStateChanged{st}) })
	eng.OnDataChannel(func(dc engine.DataChannel) { s.post(remoteChannel{dc}) })

	if cfg.Role == RoleOffer || cfg.Channel.Negotiated {
		dc, err := eng.CreateDataChannel(label, cfg.Channel.Init())
		if err != nil {
			eng.Close()
			return nil, engineErr("create data channel", err)
		}
		s.ch.Attach(dc)
	}

	util.LogDebug("session created (role=%s, channel=%q)", cfg.Role, label)

	readCtx, stopRead := context.WithCancel(context.Background())
	s.stopRead = stopRead

	go s.loop(ctx)
	go s.read(readCtx)
	return s, nil
}

// ApplyRemoteAnswer applies the peer's answer to our pending offer. It fails
// with ErrNegotiation when no offer is pending or the answer does not decode;
// the state is unchanged on failure.
func (s *Session) ApplyRemoteAnswer(encoded string) error {
	return s.do("apply remote answer", func() error { return s.applyRemoteAnswer(encoded) })
}

// HandleRemoteOffer answers the peer's offer. Only an answering session in
// NEW accepts an offer.
func (s *Session) HandleRemoteOffer(encoded string) error {
	return s.do("handle remote offer", func() error { return s.handleRemoteOffer(encoded) })
}

// ApplyRemoteCandidate hands a peer candidate to the engine, or holds it until
// a remote description has been applied.
func (s *Session) ApplyRemoteCandidate(encoded string) error {
	return s.do("apply remote candidate", func() error { return s.applyRemoteCandidate(encoded) })
}

// Close releases the data channel and the engine and moves the session to
// CLOSED. The signaling channel is left open and no longer read. Closing a
// terminated session is a no-op; Close always returns nil.
func (s *Session) Close() error {
	s.do("close", func() error {
		s.terminate(StateClosed, nil)
		return nil
	})
	return nil
}

// State returns the current handshake state. It may be stale by the time
// the caller acts on it; use Connected and Done to wait for transitions.
func (s *Session) State() State { return State(s.state.Load()) }

// Role reports whether the session offers or answers.
func (s *Session) Role() Role { return s.role }

// Channel returns the data channel handle. It exists for the whole life of
// the session; wait on its Opened signal before sending.
func (s *Session) Channel() *channel.Handle { return s.ch }

// Connected is closed when ICE first reports a connection.
func (s *Session) Connected() <-chan struct{} { return s.connected }

// Done is closed once the session reaches CLOSED or FAILED.
func (s *Session) Done() <-chan struct{} { return s.quit }

// Err returns why the session ended, or nil while it is running or after an
// explicit Close.
func (s *Session) Err() error {
	select {
	case <-s.quit:
		return s.err
	default:
		return nil
	}
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		util.LogDebug("session state %s -> %s", prev, st)
	}
}
