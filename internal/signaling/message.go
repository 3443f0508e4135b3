// Package signaling carries handshake messages between two peers before their
// direct connection exists: the wire message shape, the description and
// candidate encodings, and the channels (websocket, in-process pipe) that move
// them.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned for payloads that are not a valid
// signaling message, description or candidate.
var ErrMalformedMessage = errors.New("malformed signaling message")

// Kind identifies which variant a Message holds.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindOffer
	KindAnswer
	KindCandidate
)

func (k Kind) String() string {
	switch k {
	case KindOffer:
		return "offer"
	case KindAnswer:
		return "answer"
	case KindCandidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Message is the JSON object exchanged over the signaling channel. It is one
// of:
//
//	{"offer": "<base64 of JSON session description>"}
//	{"answer": "<base64 of JSON session description>"}
//	{"candidate": "<JSON ICE candidate init>"}
type Message struct {
	Offer     string `json:"offer,omitempty"`
	Answer    string `json:"answer,omitempty"`
	Candidate string `json:"candidate,omitempty"`
}

func OfferMessage(encoded string) Message     { return Message{Offer: encoded} }
func AnswerMessage(encoded string) Message    { return Message{Answer: encoded} }
func CandidateMessage(encoded string) Message { return Message{Candidate: encoded} }

// Kind reports the variant. When several fields are set the answer wins,
// then the offer: some answering peers echo the offer back next to their
// answer.
func (m Message) Kind() Kind {
	switch {
	case m.Answer != "":
		return KindAnswer
	case m.Offer != "":
		return KindOffer
	case m.Candidate != "":
		return KindCandidate
	default:
		return KindUnknown
	}
}

// Payload returns the field selected by Kind.
func (m Message) Payload() string {
	switch m.Kind() {
	case KindAnswer:
		return m.Answer
	case KindOffer:
		return m.Offer
	case KindCandidate:
		return m.Candidate
	default:
		return ""
	}
}

// set counts the populated fields.
func (m Message) set() int {
	n := 0
	for _, v := range []string{m.Offer, m.Answer, m.Candidate} {
		if v != "" {
			n++
		}
	}
	return n
}

// Encode serializes a message for the wire. Exactly one field must be set.
func Encode(m Message) ([]byte, error) {
	if m.set() != 1 {
		return nil, fmt.Errorf("%w: want exactly one of offer/answer/candidate, got %d", ErrMalformedMessage, m.set())
	}
	return json.Marshal(m)
}

// Decode parses a wire message. Unknown keys are ignored; a message with none
// of the known keys is malformed.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Kind() == KindUnknown {
		return Message{}, fmt.Errorf("%w: no offer, answer or candidate", ErrMalformedMessage)
	}
	return m, nil
}
