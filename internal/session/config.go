package session

import (
	"fmt"
	"io"

	"github.com/1ureka/rtcshake/internal/channel"
	"github.com/1ureka/rtcshake/internal/engine"
)

// Role decides which side produces the offer.
type Role string

const (
	RoleOffer  Role = "offer"
	RoleAnswer Role = "answer"
)

// Config is the fixed configuration of one session.
type Config struct {
	Role Role
	// ICEServers are STUN/TURN URLs handed to the engine. Empty gathers host
	// candidates only.
	ICEServers []string
	Channel    channel.Config
}

func (c Config) validate() error {
	if c.Role != RoleOffer && c.Role != RoleAnswer {
		return fmt.Errorf("invalid session role %q", c.Role)
	}
	return c.Channel.Validate()
}

// Option customizes New.
type Option func(*options)

type options struct {
	engine engine.Engine
	random io.Reader
}

// WithEngine uses eng instead of creating a pion PeerConnection. The session
// takes ownership of eng.
func WithEngine(eng engine.Engine) Option {
	return func(o *options) { o.engine = eng }
}

// WithRandom sets the source for unique channel labels.
func WithRandom(r io.Reader) Option {
	return func(o *options) { o.random = r }
}
