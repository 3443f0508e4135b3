package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/rtcshake/internal/channel"
)

func TestChannelConfig(t *testing.T) {
	cfg, err := channelConfig("chat", true, false, 1, -1, "p", "high", -1)
	require.NoError(t, err)
	assert.Equal(t, "chat", cfg.Label)
	assert.True(t, cfg.Unique)
	assert.False(t, cfg.Ordered)
	require.NotNil(t, cfg.MaxRetransmits)
	assert.Equal(t, uint16(1), *cfg.MaxRetransmits)
	assert.Nil(t, cfg.MaxPacketLifeTime)
	assert.Equal(t, channel.PriorityHigh, cfg.Priority)
	assert.False(t, cfg.Negotiated)

	cfg, err = channelConfig("chat", false, true, -1, -1, "", "", 7)
	require.NoError(t, err)
	assert.True(t, cfg.Negotiated)
	assert.Equal(t, uint16(7), cfg.ID)

	_, err = channelConfig("chat", false, true, 1, 100, "", "", -1)
	assert.ErrorIs(t, err, channel.ErrInvalidConfig)
	_, err = channelConfig("chat", false, true, 70000, -1, "", "", -1)
	assert.Error(t, err)
	_, err = channelConfig("chat", false, true, -1, -1, "", "urgent", -1)
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"stun:a:1", "stun:b:2"}, splitList(" stun:a:1, ,stun:b:2 "))
}
