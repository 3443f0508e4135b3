// Package channel holds the data channel configuration and the handle the
// session exposes once the channel is negotiated.
package channel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/rtcshake/internal/util"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid data channel config")

// Priority is the channel's scheduling hint.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "low"
	}
}

// ParsePriority accepts "low", "medium" or "high" (case-insensitive); empty
// means low.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityLow, fmt.Errorf("%w: unknown priority %q", ErrInvalidConfig, s)
	}
}

// Config describes the single data channel of a session. It is fixed once the
// channel is created.
type Config struct {
	Label string
	// Unique appends a random UUID to Label so several channels to the same
	// peer stay distinguishable.
	Unique bool

	Ordered bool
	// At most one of MaxRetransmits and MaxPacketLifeTime (ms) may be set;
	// neither means fully reliable.
	MaxRetransmits    *uint16
	MaxPacketLifeTime *uint16

	Protocol string
	Priority Priority

	// Negotiated channels are created by both peers with the same ID instead
	// of being announced in-band.
	Negotiated bool
	ID         uint16
}

// Validate checks the option combination.
func (c Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidConfig)
	}
	if c.MaxRetransmits != nil && c.MaxPacketLifeTime != nil {
		return fmt.Errorf("%w: maxRetransmits and maxPacketLifeTime are mutually exclusive", ErrInvalidConfig)
	}
	if c.Priority > PriorityHigh {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidConfig, c.Priority)
	}
	return nil
}

// Init converts the config into pion's channel options. Priority has no
// counterpart there and is kept on the Handle only.
func (c Config) Init() *webrtc.DataChannelInit {
	ordered := c.Ordered
	init := &webrtc.DataChannelInit{
		Ordered: &ordered,
	}
	if c.MaxRetransmits != nil {
		v := *c.MaxRetransmits
		init.MaxRetransmits = &v
	}
	if c.MaxPacketLifeTime != nil {
		v := *c.MaxPacketLifeTime
		init.MaxPacketLifeTime = &v
	}
	if c.Protocol != "" {
		protocol := c.Protocol
		init.Protocol = &protocol
	}
	if c.Negotiated {
		negotiated := true
		id := c.ID
		init.Negotiated = &negotiated
		init.ID = &id
	}
	return init
}

// ResolveLabel returns the label to create the channel with, suffixed with a
// UUID drawn from r when Unique is set.
func (c Config) ResolveLabel(r io.Reader) (string, error) {
	if !c.Unique {
		return c.Label, nil
	}
	id, err := util.NewUUID(r)
	if err != nil {
		return "", fmt.Errorf("generate channel label: %w", err)
	}
	return c.Label + "-" + id, nil
}

// Uint16 is a helper for the optional numeric fields.
func Uint16(v uint16) *uint16 { return &v }
