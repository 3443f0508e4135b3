package channel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "reliable ordered", cfg: Config{Label: "foo", Ordered: true}},
		{name: "unordered one retransmit", cfg: Config{Label: "foo", MaxRetransmits: Uint16(1)}},
		{name: "lifetime only", cfg: Config{Label: "foo", MaxPacketLifeTime: Uint16(500)}},
		{name: "high priority", cfg: Config{Label: "foo", Priority: PriorityHigh}},
		{name: "empty label", cfg: Config{}, wantErr: true},
		{name: "both limits", cfg: Config{Label: "foo", MaxRetransmits: Uint16(1), MaxPacketLifeTime: Uint16(500)}, wantErr: true},
		{name: "bad priority", cfg: Config{Label: "foo", Priority: Priority(9)}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	cfg := Config{
		Label:          "foo",
		Ordered:        false,
		MaxRetransmits: Uint16(1),
		Protocol:       "game",
		Negotiated:     true,
		ID:             3,
	}

	init := cfg.Init()
	require.NotNil(t, init.Ordered)
	assert.False(t, *init.Ordered)
	require.NotNil(t, init.MaxRetransmits)
	assert.Equal(t, uint16(1), *init.MaxRetransmits)
	assert.Nil(t, init.MaxPacketLifeTime)
	require.NotNil(t, init.Protocol)
	assert.Equal(t, "game", *init.Protocol)
	require.NotNil(t, init.Negotiated)
	assert.True(t, *init.Negotiated)
	require.NotNil(t, init.ID)
	assert.Equal(t, uint16(3), *init.ID)

	// The init does not alias the config.
	*init.MaxRetransmits = 7
	assert.Equal(t, uint16(1), *cfg.MaxRetransmits)
}

func TestConfigInitDefaults(t *testing.T) {
	init := Config{Label: "foo", Ordered: true}.Init()
	require.NotNil(t, init.Ordered)
	assert.True(t, *init.Ordered)
	assert.Nil(t, init.MaxRetransmits)
	assert.Nil(t, init.Protocol)
	assert.Nil(t, init.Negotiated)
	assert.Nil(t, init.ID)
}

func TestResolveLabel(t *testing.T) {
	label, err := Config{Label: "foo"}.ResolveLabel(nil)
	require.NoError(t, err)
	assert.Equal(t, "foo", label)

	label, err = Config{Label: "foo", Unique: true}.ResolveLabel(bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	assert.Equal(t, "foo-00000000-0000-4000-8000-000000000000", label)

	_, err = Config{Label: "foo", Unique: true}.ResolveLabel(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	testCases := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "", want: PriorityLow},
		{in: "low", want: PriorityLow},
		{in: "Medium", want: PriorityMedium},
		{in: " HIGH ", want: PriorityHigh},
		{in: "urgent", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.want.String(), got.String())
	}
}
