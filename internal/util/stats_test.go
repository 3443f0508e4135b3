package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, " 0.0   B"},
		{99, "99.0   B"},
		{1536, " 1.5 KiB"},
		{100 * 1024, " 0.1 MiB"},
		{98.9 * 1024 * 1024 * 1024, "98.9 GiB"},
	}

	for _, tc := range testCases {
		got := formatBytes(tc.in)
		assert.Equal(t, tc.want, got)
		assert.Len(t, got, 8)
	}
}

func TestStatsHandshakeSummary(t *testing.T) {
	s := &stats{}
	s.AddSignalSent()
	s.AddSignalSent()
	s.AddSignalRecv()
	s.AddCandidateSent()

	assert.Equal(t, "signal 2↑ 1↓ | candidates 1↑ 0↓", s.Handshake())
}
