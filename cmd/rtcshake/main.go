// rtcshake: CLI entry point.
//
// This tool negotiates a WebRTC DataChannel with a remote peer over a
// WebSocket rendezvous and then runs a line-oriented chat over it. The
// answering side hosts the rendezvous server; the offering side dials it.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-role, -wsUrl, -pin, -wsPort, -wsListen, channel options).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/pterm/pterm"

	"github.com/1ureka/rtcshake/internal/app"
	"github.com/1ureka/rtcshake/internal/channel"
	"github.com/1ureka/rtcshake/internal/config"
	"github.com/1ureka/rtcshake/internal/session"
	"github.com/1ureka/rtcshake/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()

	// CLI flags.
	role := flag.String("role", "", "Role: offer or answer")
	wsURLFlag := flag.String("wsUrl", "", "Rendezvous URL to dial (offer only)")
	pinFlag := flag.String("pin", "", "Rendezvous PIN (answer: random when empty)")
	wsPortFlag := flag.Int("wsPort", 0, "Rendezvous server port (answer only)")
	wsListenFlag := flag.Bool("wsListen", false, "Listen on all network interfaces (answer only, for LAN access)")
	iceFlag := flag.String("ice", strings.Join(cfg.ICEServers, ","), "Comma-separated STUN/TURN URLs, empty for host candidates only")
	labelFlag := flag.String("label", cfg.Channel.Label, "Data channel label")
	uniqueFlag := flag.Bool("unique", false, "Append a random UUID to the label")
	orderedFlag := flag.Bool("ordered", true, "Deliver messages in order")
	retransmitsFlag := flag.Int("maxRetransmits", -1, "Retransmit limit for partially reliable delivery (-1: reliable)")
	lifetimeFlag := flag.Int("maxPacketLifeTime", -1, "Retransmit window in ms for partially reliable delivery (-1: reliable)")
	protocolFlag := flag.String("protocol", "", "Data channel sub-protocol")
	priorityFlag := flag.String("priority", "low", "Data channel priority: low, medium or high")
	negotiatedFlag := flag.Int("negotiated", -1, "Channel ID agreed out of band by both peers (-1: announce in-band)")
	timeoutFlag := flag.Duration("timeout", cfg.Timeout, "Handshake timeout")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	traceMode := flag.Bool("trace", false, "Enable trace logging, including pion internals")
	flag.Parse()

	switch {
	case *traceMode:
		util.EnableTrace()
	case *debugMode:
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("rtcshake v%s", version))
	pterm.Println()

	ch, err := channelConfig(*labelFlag, *uniqueFlag, *orderedFlag, *retransmitsFlag, *lifetimeFlag, *protocolFlag, *priorityFlag, *negotiatedFlag)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	cfg.Channel = ch
	cfg.ICEServers = splitList(*iceFlag)
	cfg.Timeout = *timeoutFlag
	cfg.PIN = *pinFlag

	switch *role {
	case "":
		// No -role flag → interactive mode.
		askInteractive(&cfg)

	case string(session.RoleOffer):
		cfg.Role = session.RoleOffer
		if *wsURLFlag == "" {
			util.LogError("missing -wsUrl for offer role")
			os.Exit(1)
		}
		wsURL, err := config.NormalizeWSURL(*wsURLFlag, cfg.PIN)
		if err != nil {
			util.LogError("%v", err)
			os.Exit(1)
		}
		cfg.WSURL = wsURL

	case string(session.RoleAnswer):
		cfg.Role = session.RoleAnswer
		if *wsPortFlag < 0 || *wsPortFlag > 65535 {
			util.LogError("invalid -wsPort (must be 0~65535)")
			os.Exit(1)
		}
		cfg.WSAddr = config.ListenAddr(*wsPortFlag, *wsListenFlag)

	default:
		util.LogError("invalid -role: must be 'offer' or 'answer'")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	run(ctx, cfg)
	util.LogInfo("session closed (%s)", util.Stats.Handshake())
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// askInteractive fills in the role and rendezvous details through prompts
// when no -role flag is provided.
func askInteractive(cfg *config.Config) {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Answer: host the rendezvous and wait for a peer", "Offer:  dial a peer's rendezvous"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(role, "Answer") {
		cfg.Role = session.RoleAnswer
		return
	}

	cfg.Role = session.RoleOffer
	cfg.WSURL = askURL()
	if cfg.PIN == "" && !strings.Contains(cfg.WSURL, "pin=") {
		cfg.PIN = askPIN()
	}
}

// run negotiates the session for cfg.Role and chats until either side quits.
func run(ctx context.Context, cfg config.Config) {
	var (
		peer *app.Peer
		err  error
	)
	if cfg.Role == session.RoleOffer {
		peer, err = app.Offer(ctx, cfg)
	} else {
		peer, err = app.Answer(ctx, cfg)
	}
	if err != nil {
		util.LogError("failed to establish session: %v", err)
		os.Exit(1)
	}
	defer peer.Close()

	util.StartStatsReporter(ctx)
	chat(ctx, peer)
}

// chat sends each stdin line over the data channel and prints what the peer
// sends back.
func chat(ctx context.Context, peer *app.Peer) {
	dc := peer.Channel()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		pterm.Println(pterm.Cyan("peer> ") + string(msg.Data))
	})
	util.LogSuccess("connected, type a message and press Enter (Ctrl+C to quit)")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := dc.SendText(ctx, line); err != nil {
				util.LogError("failed to send message: %v", err)
				return
			}

		case <-dc.Closed():
			util.LogInfo("data channel closed by peer")
			return

		case <-peer.Done():
			if err := peer.Err(); err != nil {
				util.LogWarning("session ended: %v", err)
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// channelConfig builds the data channel config from flag values, where -1
// leaves a numeric option unset.
func channelConfig(label string, unique, ordered bool, retransmits, lifetime int, protocol, priority string, negotiated int) (channel.Config, error) {
	prio, err := channel.ParsePriority(priority)
	if err != nil {
		return channel.Config{}, err
	}
	cfg := channel.Config{
		Label:    label,
		Unique:   unique,
		Ordered:  ordered,
		Protocol: protocol,
		Priority: prio,
	}
	if cfg.MaxRetransmits, err = optionalUint16("-maxRetransmits", retransmits); err != nil {
		return channel.Config{}, err
	}
	if cfg.MaxPacketLifeTime, err = optionalUint16("-maxPacketLifeTime", lifetime); err != nil {
		return channel.Config{}, err
	}
	id, err := optionalUint16("-negotiated", negotiated)
	if err != nil {
		return channel.Config{}, err
	}
	if id != nil {
		cfg.Negotiated = true
		cfg.ID = *id
	}
	return cfg, cfg.Validate()
}

func optionalUint16(name string, v int) (*uint16, error) {
	switch {
	case v == -1:
		return nil, nil
	case v < 0 || v > 65535:
		return nil, fmt.Errorf("invalid %s %d (must be -1 or 0~65535)", name, v)
	default:
		return channel.Uint16(uint16(v)), nil
	}
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Rendezvous URL (e.g. wss://***.asse.devtunnels.ms/ws)").
			Show()

		wsURL, err := config.NormalizeWSURL(raw, "")
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}

// askPIN prompts for the numeric PIN shown by the answering side.
func askPIN() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("PIN shown by the answering peer").
			Show()

		pin := strings.TrimSpace(raw)
		if pin != "" && strings.Trim(pin, "0123456789") == "" {
			pterm.Println()
			return pin
		}

		util.LogWarning("invalid PIN: digits only")
		pterm.Println()
	}
}
