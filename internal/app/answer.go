package app

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/1ureka/rtcshake/internal/config"
	"github.com/1ureka/rtcshake/internal/session"
	"github.com/1ureka/rtcshake/internal/signaling"
	"github.com/1ureka/rtcshake/internal/util"
)

const pinLength = 4

// Host is a started rendezvous server waiting for the offering peer.
type Host struct {
	cfg  config.Config
	srv  *signaling.Server
	port int
	pin  string
}

// Listen starts the rendezvous server on cfg.WSAddr. A PIN is generated when
// cfg.PIN is empty.
func Listen(cfg config.Config) (*Host, error) {
	pin := cfg.PIN
	if pin == "" {
		pin = signaling.GeneratePIN(pinLength)
	}
	srv := signaling.NewServer(pin)
	port, err := srv.Start(cfg.WSAddr)
	if err != nil {
		return nil, err
	}
	return &Host{cfg: cfg, srv: srv, port: port, pin: pin}, nil
}

func (h *Host) Port() int   { return h.port }
func (h *Host) PIN() string { return h.pin }

// Close stops the rendezvous server. A Peer already accepted is unaffected.
func (h *Host) Close() error { return h.srv.Close() }

// Accept waits for the offering peer, answers its offer and waits for the
// data channel. The rendezvous server is closed once a peer has connected.
func (h *Host) Accept(ctx context.Context) (*Peer, error) {
	sig, err := h.srv.WaitForPeer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for peer: %w", err)
	}
	h.srv.Close()
	util.LogInfo("peer connected, negotiating")

	peer, err := establish(ctx, sig, h.cfg, session.RoleAnswer)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	return peer, nil
}

// Answer hosts the rendezvous server, prints how to reach it, and negotiates
// as the answering peer.
func Answer(ctx context.Context, cfg config.Config) (*Peer, error) {
	h, err := Listen(cfg)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	pterm.DefaultBox.
		WithTitle("WebSocket Signaling Server").
		WithTitleTopCenter().
		Println(fmt.Sprintf("Port : %d\nPIN  : %s\nPath : %s\n\nForward this port (e.g. VS Code Port Forwarding)\nto reach it from outside the LAN.", h.Port(), h.PIN(), signaling.Path))
	pterm.Println()
	util.LogInfo("waiting for the offering peer...")

	return h.Accept(ctx)
}
