package signaling

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send and Receive once the channel is closed, by
// either side.
var ErrClosed = errors.New("signaling channel closed")

// Channel is a reliable, ordered, full-duplex message transport between
// exactly two peers. Send may be called concurrently with Receive; Receive is
// expected to have a single reader.
type Channel interface {
	Send(msg Message) error

	// Receive blocks until the next message arrives or ctx is done. A
	// cancelled Receive consumes nothing, so the message goes to the next
	// caller. A message that fails to decode yields an error wrapping
	// ErrMalformedMessage and the channel stays usable; any error wrapping
	// ErrClosed is final.
	Receive(ctx context.Context) (Message, error)

	Close() error
}
