package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/engine"
	"github.com/1ureka/rtcshake/internal/util"
)

const (
	highWaterMark = 256 * 1024 // pause sending when bufferedAmount exceeds this
	lowWaterMark  = 64 * 1024  // resume sending when bufferedAmount drops below this
)

// ErrChannelClosed is returned by Send once the channel has closed.
var ErrChannelClosed = errors.New("data channel closed")

// Handle is the session's single data channel. It exists from session
// creation; on the answering side of a non-negotiated channel the engine
// object is attached later, when the remote peer announces it.
//
// Opened and Closed fire at most once each. Negotiation never waits on them.
type Handle struct {
	cfg   Config
	label string

	attachOnce sync.Once
	raw        engine.DataChannel
	attached   chan struct{}

	openSignal  chan struct{}
	closeSignal chan struct{}
	openOnce    sync.Once
	closeOnce   sync.Once
	drainSignal chan struct{}
	sendSlot    chan struct{}

	mu        sync.RWMutex
	onMessage func(webrtc.DataChannelMessage)
}

// NewHandle creates an unattached handle for cfg, using label as resolved by
// Config.ResolveLabel.
func NewHandle(cfg Config, label string) *Handle {
	return &Handle{
		cfg:         cfg,
		label:       label,
		attached:    make(chan struct{}),
		openSignal:  make(chan struct{}),
		closeSignal: make(chan struct{}),
		drainSignal: make(chan struct{}, 1),
		sendSlot:    make(chan struct{}, 1),
	}
}

// Attach binds the engine channel and wires its lifecycle callbacks. Only the
// first call has an effect; it reports whether raw was taken.
func (h *Handle) Attach(raw engine.DataChannel) bool {
	taken := false
	h.attachOnce.Do(func() {
		taken = true
		h.raw = raw

		raw.SetBufferedAmountLowThreshold(uint64(lowWaterMark))
		raw.OnBufferedAmountLow(func() {
			select {
			case h.drainSignal <- struct{}{}:
			default:
			}
		})

		raw.OnOpen(func() {
			h.openOnce.Do(func() {
				util.LogInfo("data channel %q open (ordered=%t, priority=%s)", raw.Label(), raw.Ordered(), h.cfg.Priority)
				close(h.openSignal)
			})
		})
		raw.OnClose(func() {
			util.LogDebug("data channel %q closed", raw.Label())
			h.markClosed()
		})
		raw.OnMessage(func(msg webrtc.DataChannelMessage) {
			util.Stats.AddRecv(len(msg.Data))
			h.mu.RLock()
			fn := h.onMessage
			h.mu.RUnlock()
			if fn != nil {
				fn(msg)
			}
		})

		close(h.attached)
	})
	return taken
}

func (h *Handle) markClosed() {
	h.closeOnce.Do(func() { close(h.closeSignal) })
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Opened is closed once the engine reports the channel open.
func (h *Handle) Opened() <-chan struct{} { return h.openSignal }

// Closed is closed once the channel is closed by either side or released
// with the session.
func (h *Handle) Closed() <-chan struct{} { return h.closeSignal }

// Attached is closed once an engine channel is bound.
func (h *Handle) Attached() <-chan struct{} { return h.attached }

// Close closes the engine channel, if any, and fires Closed.
func (h *Handle) Close() error {
	var err error
	select {
	case <-h.attached:
		err = h.raw.Close()
	default:
	}
	h.markClosed()
	return err
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Label returns the negotiated label, or the configured one before attach.
func (h *Handle) Label() string {
	if raw := h.attachedRaw(); raw != nil {
		return raw.Label()
	}
	return h.label
}

// Ordered reports whether delivery is ordered.
func (h *Handle) Ordered() bool {
	if raw := h.attachedRaw(); raw != nil {
		return raw.Ordered()
	}
	return h.cfg.Ordered
}

// MaxRetransmits returns the retransmit limit, nil when unlimited.
func (h *Handle) MaxRetransmits() *uint16 {
	if raw := h.attachedRaw(); raw != nil {
		return raw.MaxRetransmits()
	}
	return h.cfg.MaxRetransmits
}

// MaxPacketLifeTime returns the lifetime limit in ms, nil when unlimited.
func (h *Handle) MaxPacketLifeTime() *uint16 {
	if raw := h.attachedRaw(); raw != nil {
		return raw.MaxPacketLifeTime()
	}
	return h.cfg.MaxPacketLifeTime
}

// Protocol returns the sub-protocol tag.
func (h *Handle) Protocol() string {
	if raw := h.attachedRaw(); raw != nil {
		return raw.Protocol()
	}
	return h.cfg.Protocol
}

// Priority returns the configured priority hint.
func (h *Handle) Priority() Priority { return h.cfg.Priority }

func (h *Handle) attachedRaw() engine.DataChannel {
	select {
	case <-h.attached:
		return h.raw
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Data
// ---------------------------------------------------------------------------

// OnMessage registers the callback for inbound messages. It may be called
// before the channel is attached.
func (h *Handle) OnMessage(fn func(webrtc.DataChannelMessage)) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

// Send writes a binary message. It blocks until the channel is open, and
// while the engine's buffer is above the high water mark, until ctx is done.
// Concurrent sends are written one at a time.
func (h *Handle) Send(ctx context.Context, data []byte) error {
	return h.write(ctx, len(data), func(raw engine.DataChannel) error { return raw.Send(data) })
}

// SendText writes a text message with the same blocking rules as Send.
func (h *Handle) SendText(ctx context.Context, s string) error {
	return h.write(ctx, len(s), func(raw engine.DataChannel) error { return raw.SendText(s) })
}

func (h *Handle) write(ctx context.Context, n int, send func(engine.DataChannel) error) error {
	select {
	case h.sendSlot <- struct{}{}:
	case <-h.closeSignal:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-h.sendSlot }()

	if err := h.waitWritable(ctx); err != nil {
		return err
	}
	if err := send(h.raw); err != nil {
		return err
	}
	util.Stats.AddSent(n)
	return nil
}

func (h *Handle) waitWritable(ctx context.Context) error {
	select {
	case <-h.closeSignal:
		return ErrChannelClosed
	default:
	}

	select {
	case <-h.openSignal:
	case <-h.closeSignal:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// A drain token may be stale, so the level is checked again on wakeup.
	for h.raw.BufferedAmount() > uint64(highWaterMark) {
		select {
		case <-h.drainSignal:
		case <-h.closeSignal:
			return ErrChannelClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
