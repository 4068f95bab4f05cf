package radio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF", false},
		{"aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF", false},
		{"001122334455", "00:11:22:33:44:55", false},
		{" 00 11 22 33 44 55 ", "00:11:22:33:44:55", false},
		{"AA:BB:CC", "", true},
		{"AA:BB:CC:DD:EE:FF:00", "", true},
		{"GG:BB:CC:DD:EE:FF", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidAddress), "ParseAddress(%q) err = %v", tt.in, err)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestAddressRenderings(t *testing.T) {
	a := MustParseAddress("a4:c1:38:01:02:03")
	assert.Equal(t, "A4C138010203", a.Hex())
	assert.Equal(t, "A4:C1:38", a.OUI())
}

func TestParseMedium(t *testing.T) {
	m, err := ParseMedium("Both")
	require.NoError(t, err)
	assert.Equal(t, MediumBoth, m)
	assert.True(t, m.Has(MediumBLE))
	assert.True(t, m.Has(MediumWiFi))
	assert.False(t, MediumWiFi.Has(MediumBLE))

	_, err = ParseMedium("zigbee")
	assert.Error(t, err)
}

func TestPayloadTruncates(t *testing.T) {
	raw := make([]byte, 100)
	for i := range raw {
		raw[i] = byte(i)
	}
	p := NewPayload(raw)
	assert.Equal(t, 64, p.Len())
	assert.Equal(t, raw[:64], p.Bytes())

	var empty Payload
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Bytes())
}

func TestClipName(t *testing.T) {
	assert.Equal(t, "short", ClipName("short"))
	assert.Len(t, ClipName(strings.Repeat("x", 80)), 64)

	// 63 ASCII bytes followed by a 2-byte rune must not be split.
	name := strings.Repeat("a", 63) + "é" + "tail"
	got := ClipName(name)
	assert.Equal(t, strings.Repeat("a", 63), got)
}

func TestClampRSSI(t *testing.T) {
	assert.Equal(t, 0, ClampRSSI(12))
	assert.Equal(t, -127, ClampRSSI(-200))
	assert.Equal(t, -60, ClampRSSI(-60))
}

func TestRadioSupports(t *testing.T) {
	d := NewDemo(1, nil)
	assert.True(t, Radio{BLE: d, WiFi: d}.Supports(MediumBoth))
	assert.False(t, Radio{BLE: d}.Supports(MediumWiFi))
	assert.True(t, Radio{BLE: d}.Supports(MediumBLE))
	assert.False(t, Radio{BLE: d}.Supports(0))
}
