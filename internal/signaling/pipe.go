package signaling

import (
	"context"
	"sync"
)

const pipeBufferSize = 64

// pipe is the state shared by both ends of an in-process channel pair.
type pipe struct {
	done chan struct{}
	once sync.Once
}

type pipeEnd struct {
	p   *pipe
	in  <-chan Message
	out chan<- Message
}

// Pipe returns two linked in-process channels: whatever one end sends, the
// other receives. Messages go through the wire codec on the way, so a pipe
// rejects exactly what a websocket peer would. Closing either end closes both.
func Pipe() (Channel, Channel) {
	ab := make(chan Message, pipeBufferSize)
	ba := make(chan Message, pipeBufferSize)
	p := &pipe{done: make(chan struct{})}
	return &pipeEnd{p: p, in: ba, out: ab}, &pipeEnd{p: p, in: ab, out: ba}
}

func (e *pipeEnd) Send(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	wire, err := Decode(data)
	if err != nil {
		return err
	}

	select {
	case <-e.p.done:
		return ErrClosed
	default:
	}

	select {
	case e.out <- wire:
		return nil
	case <-e.p.done:
		return ErrClosed
	}
}

func (e *pipeEnd) Receive(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-e.in:
		return msg, nil
	case <-e.p.done:
		return Message{}, ErrClosed
	}
}

func (e *pipeEnd) Close() error {
	e.p.once.Do(func() { close(e.p.done) })
	return nil
}
