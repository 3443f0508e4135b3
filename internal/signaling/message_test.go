package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWireShape(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
		want string
	}{
		{"offer", OfferMessage("b2ZmZXI="), `{"offer":"b2ZmZXI="}`},
		{"answer", AnswerMessage("YW5zd2Vy"), `{"answer":"YW5zd2Vy"}`},
		{"candidate", CandidateMessage(`{"candidate":"candidate:1"}`), `{"candidate":"{\"candidate\":\"candidate:1\"}"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestEncodeRejectsAmbiguousMessages(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
	}{
		{"empty", Message{}},
		{"offer and answer", Message{Offer: "a", Answer: "b"}},
		{"all three", Message{Offer: "a", Answer: "b", Candidate: "c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.msg)
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		kind    Kind
		payload string
		wantErr bool
	}{
		{name: "offer", data: `{"offer":"abc"}`, kind: KindOffer, payload: "abc"},
		{name: "answer", data: `{"answer":"abc"}`, kind: KindAnswer, payload: "abc"},
		{name: "candidate", data: `{"candidate":"{}"}`, kind: KindCandidate, payload: "{}"},
		{name: "answer echoing offer", data: `{"offer":"o","answer":"a"}`, kind: KindAnswer, payload: "a"},
		{name: "unknown keys ignored", data: `{"offer":"o","player":3}`, kind: KindOffer, payload: "o"},
		{name: "no known key", data: `{"hello":"world"}`, wantErr: true},
		{name: "empty candidate", data: `{"candidate":""}`, wantErr: true},
		{name: "not json", data: `offer=abc`, wantErr: true},
		{name: "wrong field type", data: `{"offer":1}`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.data))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, msg.Kind())
			assert.Equal(t, tc.payload, msg.Payload())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "offer", KindOffer.String())
	assert.Equal(t, "answer", KindAnswer.String())
	assert.Equal(t, "candidate", KindCandidate.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
