// Package config holds the CLI configuration types.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/1ureka/rtcshake/internal/channel"
	"github.com/1ureka/rtcshake/internal/engine"
	"github.com/1ureka/rtcshake/internal/session"
	"github.com/1ureka/rtcshake/internal/signaling"
)

// DefaultTimeout bounds the handshake, from dialing or accepting the
// rendezvous peer until the data channel opens.
const DefaultTimeout = 30 * time.Second

// Config stores all parameters gathered from CLI flags or interactive prompts.
type Config struct {
	Role       session.Role
	ICEServers []string
	Channel    channel.Config

	WSURL  string // Offer: rendezvous URL to dial
	WSAddr string // Answer: listen address of the rendezvous server
	PIN    string // Answer: required PIN, generated when empty. Offer: appended to WSURL.

	Timeout time.Duration
}

// Default returns a reliable, ordered "chat" channel over the public STUN
// servers, with the rendezvous server on a random local port.
func Default() Config {
	return Config{
		ICEServers: append([]string(nil), engine.DefaultICEServers...),
		Channel:    channel.Config{Label: "chat", Ordered: true},
		WSAddr:     ListenAddr(0, false),
		Timeout:    DefaultTimeout,
	}
}

// Validate checks the fields the chosen role needs.
func (c Config) Validate() error {
	switch c.Role {
	case session.RoleOffer:
		if c.WSURL == "" {
			return errors.New("offer role needs a rendezvous URL")
		}
	case session.RoleAnswer:
		if c.WSAddr == "" {
			return errors.New("answer role needs a listen address")
		}
	default:
		return fmt.Errorf("invalid role %q: must be 'offer' or 'answer'", c.Role)
	}

	if c.PIN != "" && strings.Trim(c.PIN, "0123456789") != "" {
		return fmt.Errorf("invalid PIN %q: digits only", c.PIN)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	return c.Channel.Validate()
}

// ListenAddr picks the rendezvous listen address: loopback unless all is set,
// random port when port is 0.
func ListenAddr(port int, all bool) string {
	if all {
		return fmt.Sprintf(":%d", port)
	}
	return fmt.Sprintf("127.0.0.1:%d", port)
}

// NormalizeWSURL turns a host, host:port or URL into the rendezvous endpoint
// URL. The scheme defaults to wss and the path is always the signaling path.
// A non-empty pin replaces any pin already in the query.
func NormalizeWSURL(raw, pin string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "wss://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %q", raw)
	}

	scheme := "wss"
	if u.Scheme == "ws" || u.Scheme == "wss" {
		scheme = u.Scheme
	}

	if pin == "" {
		pin = u.Query().Get("pin")
	}
	out := url.URL{Scheme: scheme, Host: u.Host, Path: signaling.Path}
	if pin != "" {
		out.RawQuery = url.Values{"pin": {pin}}.Encode()
	}
	return out.String(), nil
}
