package signaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/rtcshake/internal/util"
)

const closeWriteTimeout = time.Second

type frame struct {
	msg Message
	err error
}

// wsChannel is a Channel over a gorilla websocket connection. Writes are
// serialized by mu, as gorilla allows one concurrent writer. A single reader
// goroutine owns the read side and hands each frame to one Receive call.
type wsChannel struct {
	conn *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once

	frames   chan frame
	closed   chan struct{}
	readDone chan struct{}
	readErr  error // set before readDone is closed
}

// NewWSChannel wraps an established websocket connection. The channel takes
// ownership of conn.
func NewWSChannel(conn *websocket.Conn) Channel {
	c := &wsChannel{
		conn:     conn,
		frames:   make(chan frame),
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Send writes msg as a single binary frame.
func (c *wsChannel) Send(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrClosed, err)
	}

	util.Stats.AddSignalSent()
	return nil
}

// readLoop reads frames until the connection fails. Text and binary frames
// are both accepted. A frame is held until some Receive takes it.
func (c *wsChannel) readLoop() {
	defer close(c.readDone)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = fmt.Errorf("%w: read: %v", ErrClosed, err)
			return
		}

		msg, err := Decode(data)
		if err == nil {
			util.Stats.AddSignalRecv()
		}

		select {
		case c.frames <- frame{msg: msg, err: err}:
		case <-c.closed:
			return
		}
	}
}

func (c *wsChannel) Receive(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	select {
	case f := <-c.frames:
		return f.msg, f.err
	case <-c.readDone:
		return Message{}, c.readErr
	case <-c.closed:
		return Message{}, ErrClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close sends a normal-closure frame (best effort) and closes the socket.
func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}
