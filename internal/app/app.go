// Package app contains the top-level orchestration for the offer and answer
// roles. Both end with an open data channel or an error.
package app

import (
	"context"
	"fmt"

	"github.com/1ureka/rtcshake/internal/config"
	"github.com/1ureka/rtcshake/internal/session"
	"github.com/1ureka/rtcshake/internal/signaling"
	"github.com/1ureka/rtcshake/internal/util"
)

// Peer is an established session together with the signaling channel it was
// negotiated over. The channel stays open for the life of the session.
type Peer struct {
	*session.Session
	sig signaling.Channel
}

// Close ends the session and releases the signaling channel.
func (p *Peer) Close() error {
	err := p.Session.Close()
	p.sig.Close()
	return err
}

func sessionConfig(cfg config.Config, role session.Role) session.Config {
	return session.Config{Role: role, ICEServers: cfg.ICEServers, Channel: cfg.Channel}
}

// establish negotiates over sig and waits for the data channel to open.
// On failure both the session and sig are released.
func establish(ctx context.Context, sig signaling.Channel, cfg config.Config, role session.Role) (*Peer, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// The session outlives the handshake deadline.
	s, err := session.New(context.WithoutCancel(ctx), sig, sessionConfig(cfg, role))
	if err != nil {
		sig.Close()
		return nil, err
	}
	peer := &Peer{Session: s, sig: sig}

	select {
	case <-s.Channel().Opened():
		util.LogSuccess("data channel %q ready (%s)", s.Channel().Label(), util.Stats.Handshake())
		return peer, nil

	case <-s.Done():
		err := s.Err()
		if err == nil {
			err = session.ErrClosed
		}
		peer.Close()
		return nil, fmt.Errorf("handshake aborted: %w", err)

	case <-ctx.Done():
		peer.Close()
		return nil, fmt.Errorf("handshake aborted in state %s: %w", s.State(), ctx.Err())
	}
}
