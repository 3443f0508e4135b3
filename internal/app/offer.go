package app

import (
	"context"
	"fmt"

	"github.com/1ureka/rtcshake/internal/config"
	"github.com/1ureka/rtcshake/internal/session"
	"github.com/1ureka/rtcshake/internal/signaling"
	"github.com/1ureka/rtcshake/internal/util"
)

// Offer dials the rendezvous server at cfg.WSURL and negotiates as the
// offering peer.
func Offer(ctx context.Context, cfg config.Config) (*Peer, error) {
	wsURL, err := config.NormalizeWSURL(cfg.WSURL, cfg.PIN)
	if err != nil {
		return nil, err
	}

	util.LogInfo("connecting to %s", wsURL)
	sig, err := signaling.Connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	util.LogInfo("rendezvous connected, negotiating")

	peer, err := establish(ctx, sig, cfg, session.RoleOffer)
	if err != nil {
		return nil, fmt.Errorf("offer: %w", err)
	}
	return peer, nil
}
