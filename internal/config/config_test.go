package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rtcshake/internal/channel"
	"github.com/1ureka/rtcshake/internal/engine"
	"github.com/1ureka/rtcshake/internal/session"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, engine.DefaultICEServers, cfg.ICEServers)
	assert.Equal(t, "127.0.0.1:0", cfg.WSAddr)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.NoError(t, cfg.Channel.Validate())

	cfg.ICEServers[0] = "stun:changed"
	assert.NotEqual(t, "stun:changed", engine.DefaultICEServers[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "answer defaults", mutate: func(c *Config) { c.Role = session.RoleAnswer }},
		{name: "offer with url", mutate: func(c *Config) { c.Role = session.RoleOffer; c.WSURL = "ws://localhost/ws" }},
		{name: "missing role", mutate: func(*Config) {}, wantErr: true},
		{name: "unknown role", mutate: func(c *Config) { c.Role = "host" }, wantErr: true},
		{name: "offer without url", mutate: func(c *Config) { c.Role = session.RoleOffer }, wantErr: true},
		{name: "answer without addr", mutate: func(c *Config) { c.Role = session.RoleAnswer; c.WSAddr = "" }, wantErr: true},
		{name: "bad pin", mutate: func(c *Config) { c.Role = session.RoleAnswer; c.PIN = "12a4" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Role = session.RoleAnswer; c.Timeout = -1 }, wantErr: true},
		{
			name: "bad channel",
			mutate: func(c *Config) {
				c.Role = session.RoleAnswer
				c.Channel.MaxRetransmits = channel.Uint16(1)
				c.Channel.MaxPacketLifeTime = channel.Uint16(100)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", ListenAddr(8080, false))
	assert.Equal(t, ":8080", ListenAddr(8080, true))
	assert.Equal(t, ":0", ListenAddr(0, true))
}

func TestNormalizeWSURL(t *testing.T) {
	tests := []struct {
		raw  string
		pin  string
		want string
	}{
		{raw: "ws://127.0.0.1:8080", want: "ws://127.0.0.1:8080/ws"},
		{raw: "https://abc.devtunnels.ms/whatever", want: "wss://abc.devtunnels.ms/ws"},
		{raw: "  abc.devtunnels.ms  ", want: "wss://abc.devtunnels.ms/ws"},
		{raw: "ws://localhost:9000/ws?pin=1234", want: "ws://localhost:9000/ws?pin=1234"},
		{raw: "ws://localhost:9000/ws?pin=1234", pin: "5678", want: "ws://localhost:9000/ws?pin=5678"},
		{raw: "localhost:9000", pin: "0042", want: "wss://localhost:9000/ws?pin=0042"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeWSURL(tt.raw, tt.pin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, raw := range []string{"", "ws://", "://nohost"} {
		_, err := NormalizeWSURL(raw, "")
		assert.Error(t, err, "raw=%q", raw)
	}
}
