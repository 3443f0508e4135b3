package session

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Session is an *Error whose Kind is
// one of these; errors.Is matches both the kind and the underlying cause.
var (
	// ErrNegotiation: a remote description or candidate was malformed or
	// arrived in the wrong state.
	ErrNegotiation = errors.New("negotiation error")
	// ErrEngine: the peer-connection engine rejected an operation.
	ErrEngine = errors.New("engine error")
	// ErrTransport: the signaling channel failed or closed mid-handshake.
	ErrTransport = errors.New("transport error")
	// ErrClosed: the session already reached CLOSED or FAILED.
	ErrClosed = errors.New("session closed")
)

// Error is a failed session operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func negotiationErr(op string, err error) error { return &Error{Op: op, Kind: ErrNegotiation, Err: err} }
func engineErr(op string, err error) error      { return &Error{Op: op, Kind: ErrEngine, Err: err} }
func transportErr(op string, err error) error   { return &Error{Op: op, Kind: ErrTransport, Err: err} }
