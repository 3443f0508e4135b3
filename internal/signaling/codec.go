package signaling

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/ice/v4"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// EncodeDescription returns base64(JSON(desc)), the form carried in offer and
// answer messages.
func EncodeDescription(desc webrtc.SessionDescription) (string, error) {
	data, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal session description: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDescription reverses EncodeDescription. The description must carry a
// known type and an SDP body that parses.
func DecodeDescription(encoded string) (webrtc.SessionDescription, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: base64: %v", ErrMalformedMessage, err)
	}

	var desc webrtc.SessionDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: description json: %v", ErrMalformedMessage, err)
	}
	if desc.Type == webrtc.SDPTypeUnknown {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: description without type", ErrMalformedMessage)
	}

	if strings.TrimSpace(desc.SDP) == "" {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: empty sdp", ErrMalformedMessage)
	}
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: sdp: %v", ErrMalformedMessage, err)
	}

	return desc, nil
}

// IsEndOfCandidates reports whether c is the end-of-candidates marker: nil, or
// an empty candidate line. Such candidates are never put on the wire.
func IsEndOfCandidates(c *webrtc.ICECandidateInit) bool {
	return c == nil || strings.TrimPrefix(c.Candidate, "candidate:") == ""
}

// EncodeCandidate returns the JSON form of a candidate.
func EncodeCandidate(c webrtc.ICECandidateInit) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal ICE candidate: %w", err)
	}
	return string(data), nil
}

// DecodeCandidate parses and validates a candidate received from the remote
// peer. Candidates of an unknown type or with an address the engine cannot
// classify (e.g. mDNS hostnames) are accepted; the engine discards them.
func DecodeCandidate(encoded string) (webrtc.ICECandidateInit, error) {
	var c webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(encoded), &c); err != nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: candidate json: %v", ErrMalformedMessage, err)
	}
	if IsEndOfCandidates(&c) {
		return c, nil
	}

	if _, err := ice.UnmarshalCandidate(c.Candidate); err != nil &&
		!errors.Is(err, ice.ErrUnknownCandidateTyp) &&
		!errors.Is(err, ice.ErrDetermineNetworkType) {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: candidate: %v", ErrMalformedMessage, err)
	}

	return c, nil
}
