// Package engine describes the peer-connection engine the negotiator drives
// and provides the pion-backed implementation.
//
// The negotiator only needs offer/answer creation, description application,
// candidate intake and a handful of callbacks; everything below that (ICE,
// DTLS, SCTP) stays inside the engine.
package engine

import (
	"github.com/pion/webrtc/v4"
)

// Engine is one peer connection. Callbacks may fire on engine-owned
// goroutines; callers are expected to hand them off to their own loop.
type Engine interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error

	// AddICECandidate hands a remote candidate to the engine. The engine
	// rejects candidates while it has no remote description.
	AddICECandidate(candidate webrtc.ICECandidateInit) error

	CreateDataChannel(label string, init *webrtc.DataChannelInit) (DataChannel, error)

	OnNegotiationNeeded(fn func())

	// OnICECandidate reports local candidates in canonical form. A nil
	// candidate marks the end of gathering.
	OnICECandidate(fn func(*webrtc.ICECandidateInit))

	OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState))

	// OnDataChannel reports channels announced in-band by the remote peer.
	OnDataChannel(fn func(DataChannel))

	Close() error
}

// DataChannel is the subset of *webrtc.DataChannel the channel handle uses.
type DataChannel interface {
	Label() string
	Ordered() bool
	MaxRetransmits() *uint16
	MaxPacketLifeTime() *uint16
	Protocol() string
	ReadyState() webrtc.DataChannelState

	OnOpen(fn func())
	OnClose(fn func())
	OnMessage(fn func(msg webrtc.DataChannelMessage))

	Send(data []byte) error
	SendText(s string) error

	BufferedAmount() uint64
	SetBufferedAmountLowThreshold(th uint64)
	OnBufferedAmountLow(fn func())

	Close() error
}

var _ DataChannel = (*webrtc.DataChannel)(nil)
