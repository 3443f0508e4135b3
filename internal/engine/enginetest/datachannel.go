package enginetest

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/engine"
)

var errClosed = errors.New("fake: data channel closed")

// DataChannel is a fake engine data channel. Open, Deliver and SetBuffered
// drive its callbacks.
type DataChannel struct {
	mu sync.Mutex

	label string
	init  webrtc.DataChannelInit
	state webrtc.DataChannelState

	buffered  uint64
	threshold uint64
	sent      [][]byte

	onOpen    func()
	onClose   func()
	onMessage func(webrtc.DataChannelMessage)
	onLow     func()
}

var _ engine.DataChannel = (*DataChannel)(nil)

// NewDataChannel returns a connecting channel with the given options.
func NewDataChannel(label string, init *webrtc.DataChannelInit) *DataChannel {
	dc := &DataChannel{label: label, state: webrtc.DataChannelStateConnecting}
	if init != nil {
		dc.init = *init
	}
	return dc
}

func (d *DataChannel) Label() string { return d.label }

func (d *DataChannel) Ordered() bool {
	return d.init.Ordered == nil || *d.init.Ordered
}

func (d *DataChannel) MaxRetransmits() *uint16    { return d.init.MaxRetransmits }
func (d *DataChannel) MaxPacketLifeTime() *uint16 { return d.init.MaxPacketLifeTime }

func (d *DataChannel) Protocol() string {
	if d.init.Protocol == nil {
		return ""
	}
	return *d.init.Protocol
}

// Negotiated reports whether the channel was created pre-negotiated.
func (d *DataChannel) Negotiated() bool {
	return d.init.Negotiated != nil && *d.init.Negotiated
}

func (d *DataChannel) ReadyState() webrtc.DataChannelState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DataChannel) OnOpen(fn func()) {
	d.mu.Lock()
	d.onOpen = fn
	open := d.state == webrtc.DataChannelStateOpen
	d.mu.Unlock()
	if open {
		go fn()
	}
}

func (d *DataChannel) OnClose(fn func()) {
	d.mu.Lock()
	d.onClose = fn
	d.mu.Unlock()
}

func (d *DataChannel) OnMessage(fn func(webrtc.DataChannelMessage)) {
	d.mu.Lock()
	d.onMessage = fn
	d.mu.Unlock()
}

func (d *DataChannel) Send(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != webrtc.DataChannelStateOpen {
		return errClosed
	}
	d.sent = append(d.sent, append([]byte(nil), data...))
	return nil
}

func (d *DataChannel) SendText(s string) error {
	return d.Send([]byte(s))
}

func (d *DataChannel) BufferedAmount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffered
}

func (d *DataChannel) SetBufferedAmountLowThreshold(th uint64) {
	d.mu.Lock()
	d.threshold = th
	d.mu.Unlock()
}

func (d *DataChannel) OnBufferedAmountLow(fn func()) {
	d.mu.Lock()
	d.onLow = fn
	d.mu.Unlock()
}

func (d *DataChannel) Close() error {
	d.mu.Lock()
	if d.state == webrtc.DataChannelStateClosed {
		d.mu.Unlock()
		return nil
	}
	d.state = webrtc.DataChannelStateClosed
	fn := d.onClose
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Triggers
// ---------------------------------------------------------------------------

// Open moves the channel to open and fires the open callback.
func (d *DataChannel) Open() {
	d.mu.Lock()
	d.state = webrtc.DataChannelStateOpen
	fn := d.onOpen
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Deliver fires the message callback as if data arrived from the peer.
func (d *DataChannel) Deliver(msg webrtc.DataChannelMessage) {
	d.mu.Lock()
	fn := d.onMessage
	d.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// SetBuffered sets the buffered amount; dropping to or below the low
// threshold fires the buffered-amount-low callback.
func (d *DataChannel) SetBuffered(n uint64) {
	d.mu.Lock()
	d.buffered = n
	fire := n <= d.threshold
	fn := d.onLow
	d.mu.Unlock()
	if fire && fn != nil {
		fn()
	}
}

// Sent returns copies of every message written so far.
func (d *DataChannel) Sent() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.sent...)
}
