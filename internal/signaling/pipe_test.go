package signaling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeDeliversBothWays(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	require.NoError(t, a.Send(OfferMessage("o")))
	require.NoError(t, b.Send(AnswerMessage("x")))
	require.NoError(t, a.Send(CandidateMessage("c")))

	msg, err := b.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindOffer, msg.Kind())

	msg, err = b.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindCandidate, msg.Kind())
	assert.Equal(t, "c", msg.Payload())

	msg, err = a.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindAnswer, msg.Kind())
}

func TestPipeRejectsMalformed(t *testing.T) {
	a, _ := Pipe()
	defer a.Close()

	assert.ErrorIs(t, a.Send(Message{}), ErrMalformedMessage)
	assert.ErrorIs(t, a.Send(Message{Offer: "o", Candidate: "c"}), ErrMalformedMessage)
}

func TestPipeCloseEndsBothSides(t *testing.T) {
	a, b := Pipe()

	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		done <- err
	}()

	require.NoError(t, b.Close())
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.ErrorIs(t, a.Send(OfferMessage("o")), ErrClosed)
	_, err := a.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	// Closing twice is harmless.
	assert.NoError(t, a.Close())
}

func TestPipeCancelledReceiveKeepsMessage(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(ctx)
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.NoError(t, a.Send(AnswerMessage("x")))

	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindAnswer, msg.Kind())
}
