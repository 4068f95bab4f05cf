package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNmcliScan(t *testing.T) {
	out := `AA\:BB\:CC\:DD\:EE\:01:HomeNet:2437 MHz:6:80:WPA2
AA\:BB\:CC\:DD\:EE\:02::5180 MHz:36:40:WPA1 WPA2
AA\:BB\:CC\:DD\:EE\:03:Cafe\:Guest:2412 MHz:1:100:
AA\:BB\:CC\:DD\:EE\:04:Corp:5745 MHz:149:55:WPA2 802.1X
not-a-mac:x:1:1:1:
`
	obs := parseNmcliScan(out)
	require.Len(t, obs, 4)

	assert.Equal(t, "AA:BB:CC:DD:EE:01", obs[0].Address.String())
	assert.Equal(t, "HomeNet", obs[0].Name)
	assert.Equal(t, MediumWiFi, obs[0].Medium)
	assert.Equal(t, -44, obs[0].RSSI)
	assert.Equal(t, 6, obs[0].WiFi.Channel)
	assert.Equal(t, 2437, obs[0].WiFi.Frequency)
	assert.Equal(t, AuthWPA2, obs[0].WiFi.Auth)
	assert.False(t, obs[0].WiFi.Hidden)

	assert.True(t, obs[1].WiFi.Hidden)
	assert.Equal(t, AuthWPAWPA2, obs[1].WiFi.Auth)
	assert.Equal(t, "5G", obs[1].WiFi.Band())

	assert.Equal(t, "Cafe:Guest", obs[2].Name)
	assert.Equal(t, AuthOpen, obs[2].WiFi.Auth)
	assert.Equal(t, -30, obs[2].RSSI)

	assert.Equal(t, AuthEnterprise, obs[3].WiFi.Auth)
}

func TestParseIWScan(t *testing.T) {
	out := `BSS 11:22:33:44:55:66(on wlan0)
	freq: 2462
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -67.00 dBm
	SSID: Upstairs
	DS Parameter set: channel 11
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK SAE
BSS 11:22:33:44:55:77(on wlan0)
	freq: 5200
	capability: ESS (0x0001)
	signal: -81.00 dBm
	SSID: 
	HT operation:
		 * primary channel: 40
BSS 11:22:33:44:55:88(on wlan0)
	freq: 2412
	capability: ESS Privacy (0x0011)
	signal: -90.00 dBm
	SSID: legacy
`
	obs := parseIWScan(out)
	require.Len(t, obs, 3)

	a := obs[0]
	assert.Equal(t, "11:22:33:44:55:66", a.Address.String())
	assert.Equal(t, -67, a.RSSI)
	assert.Equal(t, "Upstairs", a.Name)
	assert.Equal(t, 11, a.WiFi.Channel)
	assert.Equal(t, AuthWPA3, a.WiFi.Auth)
	assert.Equal(t, "CCMP", a.WiFi.GroupCipher)
	assert.Equal(t, "CCMP", a.WiFi.PairwiseCipher)

	b := obs[1]
	assert.True(t, b.WiFi.Hidden)
	assert.Equal(t, 40, b.WiFi.Channel)
	assert.Equal(t, AuthOpen, b.WiFi.Auth)

	assert.Equal(t, AuthWEP, obs[2].WiFi.Auth)
}

func TestAuthFromNmcli(t *testing.T) {
	assert.Equal(t, AuthOpen, authFromNmcli("--"))
	assert.Equal(t, AuthWPA3, authFromNmcli("WPA3"))
	assert.Equal(t, AuthWPA2WPA3, authFromNmcli("WPA2 WPA3"))
	assert.Equal(t, AuthWEP, authFromNmcli("WEP"))
	assert.Equal(t, AuthUnknown, authFromNmcli("OWE"))
}
