package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/engine"
	"github.com/1ureka/rtcshake/internal/signaling"
	"github.com/1ureka/rtcshake/internal/util"
)

type event any

type (
	negotiationNeeded   struct{}
	candidateDiscovered struct{ candidate *webrtc.ICECandidateInit }
	iceStateChanged     struct{ state webrtc.ICEConnectionState }
	remoteChannel       struct{ dc engine.DataChannel }
	inbound             struct{ msg signaling.Message }
	signalingLost       struct{ err error }
	request             struct {
		fn    func() error
		reply chan error
	}
)

// post queues ev for the loop. It reports false once the session is over.
func (s *Session) post(ev event) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// do runs fn on the loop goroutine and returns its result.
func (s *Session) do(op string, fn func() error) error {
	reply := make(chan error, 1)
	if !s.post(request{fn: fn, reply: reply}) {
		return &Error{Op: op, Kind: ErrClosed}
	}
	select {
	case err := <-reply:
		return err
	case <-s.quit:
		// A request handled just before the loop ended has its reply
		// buffered; a request that itself ends the session may not.
		select {
		case err := <-reply:
			return err
		default:
			return &Error{Op: op, Kind: ErrClosed}
		}
	}
}

func (s *Session) loop(ctx context.Context) {
	for {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-ctx.Done():
			s.terminate(StateClosed, ctx.Err())
		}
		if s.State().Terminal() {
			return
		}
	}
}

// read forwards inbound signaling messages to the loop until the channel
// fails or the session ends. Once ctx is cancelled the reader stops taking
// messages, leaving them to the channel's owner.
func (s *Session) read(ctx context.Context) {
	for {
		msg, err := s.sig.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, signaling.ErrMalformedMessage) {
				util.LogWarning("dropping signaling message: %v", err)
				continue
			}
			s.post(signalingLost{err})
			return
		}
		if !s.post(inbound{msg}) {
			return
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case negotiationNeeded:
		s.onNegotiationNeeded()
	case candidateDiscovered:
		s.onCandidateDiscovered(ev.candidate)
	case iceStateChanged:
		s.onICEStateChange(ev.state)
	case remoteChannel:
		s.onRemoteChannel(ev.dc)
	case inbound:
		s.dispatch(ev.msg)
	case signalingLost:
		util.LogInfo("signaling channel closed")
		s.terminate(StateClosed, transportErr("receive", ev.err))
	case request:
		ev.reply <- ev.fn()
	}
}

func (s *Session) onNegotiationNeeded() {
	if s.role != RoleOffer {
		util.LogDebug("negotiation needed on answering side, ignored")
		return
	}
	if st := s.State(); st != StateNew {
		util.LogDebug("negotiation needed in state %s, ignored", st)
		return
	}
	if err := s.sendOffer(); err != nil {
		util.LogError("failed to send offer: %v", err)
		return
	}
	s.setState(StateOfferSent)
}

func (s *Session) sendOffer() error {
	offer, err := s.eng.CreateOffer()
	if err != nil {
		return engineErr("create offer", err)
	}
	if err := s.eng.SetLocalDescription(offer); err != nil {
		return engineErr("set local description", err)
	}
	encoded, err := signaling.EncodeDescription(offer)
	if err != nil {
		return engineErr("encode offer", err)
	}
	if err := s.sig.Send(signaling.OfferMessage(encoded)); err != nil {
		return transportErr("send offer", err)
	}
	util.LogInfo("offer sent")
	return nil
}

func (s *Session) onCandidateDiscovered(c *webrtc.ICECandidateInit) {
	if signaling.IsEndOfCandidates(c) {
		util.LogDebug("local candidate gathering complete")
		return
	}
	encoded, err := signaling.EncodeCandidate(*c)
	if err != nil {
		util.LogWarning("failed to encode ICE candidate: %v", err)
		return
	}
	if err := s.sig.Send(signaling.CandidateMessage(encoded)); err != nil {
		util.LogWarning("failed to send ICE candidate: %v", transportErr("send candidate", err))
		return
	}
	util.Stats.AddCandidateSent()
	util.LogTrace("sent candidate %s", c.Candidate)
}

func (s *Session) applyRemoteAnswer(encoded string) error {
	const op = "apply remote answer"
	if st := s.State(); st != StateOfferSent {
		return negotiationErr(op, fmt.Errorf("no offer pending in state %s", st))
	}
	desc, err := signaling.DecodeDescription(encoded)
	if err != nil {
		return negotiationErr(op, err)
	}
	if desc.Type != webrtc.SDPTypeAnswer {
		return negotiationErr(op, fmt.Errorf("expected answer, got %s", desc.Type))
	}
	if err := s.eng.SetRemoteDescription(desc); err != nil {
		return negotiationErr(op, err)
	}

	s.remoteSet = true
	s.setState(StateAnswerApplied)
	util.LogInfo("remote answer applied")
	s.flushCandidates()
	return nil
}

func (s *Session) handleRemoteOffer(encoded string) error {
	const op = "handle remote offer"
	if s.role != RoleAnswer {
		return negotiationErr(op, errors.New("offering session does not accept offers"))
	}
	if st := s.State(); st != StateNew {
		return negotiationErr(op, fmt.Errorf("offer already handled (state %s)", st))
	}
	desc, err := signaling.DecodeDescription(encoded)
	if err != nil {
		return negotiationErr(op, err)
	}
	if desc.Type != webrtc.SDPTypeOffer {
		return negotiationErr(op, fmt.Errorf("expected offer, got %s", desc.Type))
	}
	if err := s.eng.SetRemoteDescription(desc); err != nil {
		return negotiationErr(op, err)
	}
	s.remoteSet = true
	s.flushCandidates()

	answer, err := s.eng.CreateAnswer()
	if err != nil {
		return engineErr("create answer", err)
	}
	if err := s.eng.SetLocalDescription(answer); err != nil {
		return engineErr("set local description", err)
	}
	out, err := signaling.EncodeDescription(answer)
	if err != nil {
		return engineErr("encode answer", err)
	}
	if err := s.sig.Send(signaling.AnswerMessage(out)); err != nil {
		return transportErr("send answer", err)
	}

	s.setState(StateAnswerSent)
	util.LogInfo("answer sent")
	return nil
}

func (s *Session) applyRemoteCandidate(encoded string) error {
	const op = "apply remote candidate"
	c, err := signaling.DecodeCandidate(encoded)
	if err != nil {
		return negotiationErr(op, err)
	}
	util.Stats.AddCandidateRecv()

	if !s.remoteSet {
		s.pending = append(s.pending, c)
		util.LogDebug("holding remote candidate until a remote description is set (%d pending)", len(s.pending))
		return nil
	}
	if err := s.eng.AddICECandidate(c); err != nil {
		return negotiationErr(op, err)
	}
	return nil
}

func (s *Session) flushCandidates() {
	if len(s.pending) == 0 {
		return
	}
	util.LogDebug("applying %d held remote candidates", len(s.pending))
	for _, c := range s.pending {
		if err := s.eng.AddICECandidate(c); err != nil {
			util.LogWarning("held candidate rejected: %v", err)
		}
	}
	s.pending = nil
}

// dispatch applies an inbound message. Failures are reported but do not end
// the session.
func (s *Session) dispatch(msg signaling.Message) {
	var err error
	switch msg.Kind() {
	case signaling.KindOffer:
		err = s.handleRemoteOffer(msg.Payload())
	case signaling.KindAnswer:
		err = s.applyRemoteAnswer(msg.Payload())
	case signaling.KindCandidate:
		if err = s.applyRemoteCandidate(msg.Payload()); err != nil {
			util.LogWarning("%v", err)
			return
		}
	default:
		util.LogWarning("ignoring signaling message of kind %s", msg.Kind())
		return
	}
	if err != nil {
		util.LogError("%v", err)
	}
}

func (s *Session) onICEStateChange(st webrtc.ICEConnectionState) {
	util.LogDebug("ICE connection state: %s", st)
	switch st {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		if s.isConnected {
			return
		}
		s.isConnected = true
		s.setState(StateConnected)
		close(s.connected)
		util.LogSuccess("peer connection established")
	case webrtc.ICEConnectionStateDisconnected:
		util.LogWarning("ICE connection disconnected")
	case webrtc.ICEConnectionStateFailed:
		s.terminate(StateFailed, engineErr("ice", errors.New("ICE connection failed")))
	case webrtc.ICEConnectionStateClosed:
		s.terminate(StateClosed, nil)
	}
}

func (s *Session) onRemoteChannel(dc engine.DataChannel) {
	if !s.ch.Attach(dc) {
		util.LogWarning("ignoring additional data channel %q", dc.Label())
		return
	}
	util.LogDebug("remote data channel %q adopted", dc.Label())
}

// terminate ends the session in a terminal state. The reader is stopped
// before quit closes, and quit closes before the engine is released so that
// callbacks fired during release are dropped.
func (s *Session) terminate(st State, cause error) {
	if s.State().Terminal() {
		return
	}
	s.stopRead()
	s.err = cause
	s.setState(st)
	close(s.quit)

	if err := s.ch.Close(); err != nil {
		util.LogDebug("close data channel: %v", err)
	}
	if err := s.eng.Close(); err != nil {
		util.LogDebug("close engine: %v", err)
	}
	if st == StateFailed {
		s.sig.Close()
		util.LogError("session failed: %v", cause)
		return
	}
	util.LogInfo("session closed")
}
