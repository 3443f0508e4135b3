// Package enginetest provides in-memory engine.Engine and engine.DataChannel
// fakes whose callbacks are fired explicitly by the test.
package enginetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/engine"
)

// SDP returns a minimal session description body that parses.
func SDP(version int) string {
	return fmt.Sprintf("v=0\r\no=- 4215775240449105457 %d IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n", version)
}

var (
	ErrNoRemoteDescription = errors.New("fake: no remote description")
	ErrWrongState          = errors.New("fake: description applied in wrong state")
)

// Engine is a fake peer connection that enforces the basic offer/answer
// state rules of a real engine.
type Engine struct {
	mu sync.Mutex

	// Injected failures.
	OfferErr        error
	AnswerErr       error
	SetLocalErr     error
	SetRemoteErr    error
	AddCandidateErr error

	local  *webrtc.SessionDescription
	remote *webrtc.SessionDescription

	candidates []webrtc.ICECandidateInit
	channels   []*DataChannel
	offers     int
	closed     bool

	onNegotiationNeeded func()
	onICECandidate      func(*webrtc.ICECandidateInit)
	onICEState          func(webrtc.ICEConnectionState)
	onDataChannel       func(engine.DataChannel)
}

var _ engine.Engine = (*Engine)(nil)

// New returns an empty fake engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) CreateOffer() (webrtc.SessionDescription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.OfferErr != nil {
		return webrtc.SessionDescription{}, e.OfferErr
	}
	e.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: SDP(e.offers)}, nil
}

func (e *Engine) CreateAnswer() (webrtc.SessionDescription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.AnswerErr != nil {
		return webrtc.SessionDescription{}, e.AnswerErr
	}
	if e.remote == nil || e.remote.Type != webrtc.SDPTypeOffer {
		return webrtc.SessionDescription{}, ErrWrongState
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: SDP(1)}, nil
}

func (e *Engine) SetLocalDescription(desc webrtc.SessionDescription) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetLocalErr != nil {
		return e.SetLocalErr
	}
	e.local = &desc
	return nil
}

func (e *Engine) SetRemoteDescription(desc webrtc.SessionDescription) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetRemoteErr != nil {
		return e.SetRemoteErr
	}
	if desc.Type == webrtc.SDPTypeAnswer {
		if e.local == nil || e.local.Type != webrtc.SDPTypeOffer {
			return ErrWrongState
		}
		if e.remote != nil && e.remote.Type == webrtc.SDPTypeAnswer {
			return ErrWrongState
		}
	}
	e.remote = &desc
	return nil
}

func (e *Engine) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.remote == nil {
		return ErrNoRemoteDescription
	}
	if e.AddCandidateErr != nil {
		return e.AddCandidateErr
	}
	e.candidates = append(e.candidates, candidate)
	return nil
}

func (e *Engine) CreateDataChannel(label string, init *webrtc.DataChannelInit) (engine.DataChannel, error) {
	dc := NewDataChannel(label, init)
	e.mu.Lock()
	e.channels = append(e.channels, dc)
	e.mu.Unlock()
	return dc, nil
}

func (e *Engine) OnNegotiationNeeded(fn func()) {
	e.mu.Lock()
	e.onNegotiationNeeded = fn
	e.mu.Unlock()
}

func (e *Engine) OnICECandidate(fn func(*webrtc.ICECandidateInit)) {
	e.mu.Lock()
	e.onICECandidate = fn
	e.mu.Unlock()
}

func (e *Engine) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	e.mu.Lock()
	e.onICEState = fn
	e.mu.Unlock()
}

func (e *Engine) OnDataChannel(fn func(engine.DataChannel)) {
	e.mu.Lock()
	e.onDataChannel = fn
	e.mu.Unlock()
}

func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	channels := append([]*DataChannel(nil), e.channels...)
	e.mu.Unlock()

	for _, dc := range channels {
		dc.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Event triggers
// ---------------------------------------------------------------------------

// FireNegotiationNeeded invokes the negotiation-needed callback.
func (e *Engine) FireNegotiationNeeded() {
	e.mu.Lock()
	fn := e.onNegotiationNeeded
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// FireCandidate invokes the candidate callback; nil marks end of gathering.
func (e *Engine) FireCandidate(c *webrtc.ICECandidateInit) {
	e.mu.Lock()
	fn := e.onICECandidate
	e.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}

// FireICEState invokes the ICE connection state callback.
func (e *Engine) FireICEState(state webrtc.ICEConnectionState) {
	e.mu.Lock()
	fn := e.onICEState
	e.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

// FireDataChannel announces a remote channel.
func (e *Engine) FireDataChannel(dc *DataChannel) {
	e.mu.Lock()
	fn := e.onDataChannel
	e.channels = append(e.channels, dc)
	e.mu.Unlock()
	if fn != nil {
		fn(dc)
	}
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

func (e *Engine) LocalDescription() *webrtc.SessionDescription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local
}

func (e *Engine) RemoteDescription() *webrtc.SessionDescription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remote
}

// RemoteCandidates returns the candidates accepted by AddICECandidate.
func (e *Engine) RemoteCandidates() []webrtc.ICECandidateInit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]webrtc.ICECandidateInit(nil), e.candidates...)
}

func (e *Engine) Channels() []*DataChannel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*DataChannel(nil), e.channels...)
}

func (e *Engine) OfferCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offers
}

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
