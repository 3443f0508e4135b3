package engine

import (
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/util"
)

// DefaultICEServers are public STUN servers for candidate gathering. No TURN:
// peers are expected to reach each other directly or not at all.
var DefaultICEServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// peerConnection adapts *webrtc.PeerConnection to Engine.
type peerConnection struct {
	pc *webrtc.PeerConnection
}

var _ Engine = (*peerConnection)(nil)

// NewPeerConnection creates a pion PeerConnection using the given ICE server
// URLs. An empty list gathers host candidates only. pion's internal logging
// is routed through util.PionLoggerFactory.
func NewPeerConnection(iceServers []string) (Engine, error) {
	se := webrtc.SettingEngine{
		LoggerFactory: util.PionLoggerFactory{},
	}
	api := webrtc.NewAPI(webrtc.WithSettingEngine(se))

	config := webrtc.Configuration{}
	if len(iceServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{
			{URLs: iceServers},
		}
	}

	pc, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, err
	}
	return &peerConnection{pc: pc}, nil
}

func (p *peerConnection) CreateOffer() (webrtc.SessionDescription, error) {
	return p.pc.CreateOffer(nil)
}

func (p *peerConnection) CreateAnswer() (webrtc.SessionDescription, error) {
	return p.pc.CreateAnswer(nil)
}

func (p *peerConnection) SetLocalDescription(desc webrtc.SessionDescription) error {
	return p.pc.SetLocalDescription(desc)
}

func (p *peerConnection) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return p.pc.SetRemoteDescription(desc)
}

func (p *peerConnection) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(candidate)
}

func (p *peerConnection) CreateDataChannel(label string, init *webrtc.DataChannelInit) (DataChannel, error) {
	dc, err := p.pc.CreateDataChannel(label, init)
	if err != nil {
		return nil, err
	}
	return dc, nil
}

func (p *peerConnection) OnNegotiationNeeded(fn func()) {
	p.pc.OnNegotiationNeeded(fn)
}

func (p *peerConnection) OnICECandidate(fn func(*webrtc.ICECandidateInit)) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			fn(nil)
			return
		}
		init := c.ToJSON()
		fn(&init)
	})
}

func (p *peerConnection) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	p.pc.OnICEConnectionStateChange(fn)
}

func (p *peerConnection) OnDataChannel(fn func(DataChannel)) {
	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) { fn(dc) })
}

func (p *peerConnection) Close() error {
	return p.pc.Close()
}
