package radio

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"oui-spy.klederson.com/internal/config"
)

// ErrInvalidAddress is returned when a hardware address cannot be parsed.
var ErrInvalidAddress = errors.New("invalid hardware address")

// Medium identifies the radio a record came from. Values combine as flags so
// a selection of both media is WiFi|BLE.
type Medium uint8

const (
	MediumWiFi Medium = 1 << iota
	MediumBLE
	MediumBoth = MediumWiFi | MediumBLE
)

func (m Medium) String() string {
	switch m {
	case MediumWiFi:
		return "wifi"
	case MediumBLE:
		return "ble"
	case MediumBoth:
		return "both"
	default:
		return "none"
	}
}

// Label is the human-readable form used in reports.
func (m Medium) Label() string {
	switch m {
	case MediumWiFi:
		return "Wi-Fi"
	case MediumBLE:
		return "BLE"
	case MediumBoth:
		return "Wi-Fi+BLE"
	default:
		return "-"
	}
}

// Has reports whether every medium in o is selected in m.
func (m Medium) Has(o Medium) bool {
	return o != 0 && m&o == o
}

// ParseMedium accepts wifi, ble or both (case-insensitive).
func ParseMedium(s string) (Medium, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wifi", "wi-fi":
		return MediumWiFi, nil
	case "ble":
		return MediumBLE, nil
	case "both":
		return MediumBoth, nil
	}
	return 0, fmt.Errorf("unknown medium %q (want wifi, ble or both)", s)
}

// Address is a 6-byte hardware address.
type Address [6]byte

// ParseAddress accepts 12 hex digits with optional ':', '-' or whitespace delimiters.
func ParseAddress(s string) (Address, error) {
	var a Address
	n := 0
	var hi byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c == '-' || c == ' ' || c == '\t' {
			continue
		}
		v, ok := hexVal(c)
		if !ok || n >= 12 {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		if n%2 == 0 {
			hi = v
		} else {
			a[n/2] = hi<<4 | v
		}
		n++
	}
	if n != 12 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for literals; it panics on bad input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders AA:BB:CC:DD:EE:FF.
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Hex renders the 12 uppercase hex digits without delimiters.
func (a Address) Hex() string {
	return fmt.Sprintf("%02X%02X%02X%02X%02X%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// OUI renders the manufacturer prefix as AA:BB:CC.
func (a Address) OUI() string {
	return fmt.Sprintf("%02X:%02X:%02X", a[0], a[1], a[2])
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// Payload is a raw advertisement with a fixed capacity of
// config.MaxPayloadLen bytes. The zero value is an empty payload.
type Payload struct {
	n   uint8
	buf [config.MaxPayloadLen]byte
}

// NewPayload copies b, truncating to the payload capacity.
func NewPayload(b []byte) Payload {
	var p Payload
	p.n = uint8(copy(p.buf[:], b))
	return p
}

// Bytes returns the stored bytes. The slice aliases p.
func (p *Payload) Bytes() []byte { return p.buf[:p.n] }

// Len returns the number of stored bytes.
func (p Payload) Len() int { return int(p.n) }

// ClipName bounds a device name to config.MaxNameLen bytes without
// splitting a UTF-8 sequence.
func ClipName(s string) string {
	if len(s) <= config.MaxNameLen {
		return s
	}
	cut := config.MaxNameLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

// AuthMode is the Wi-Fi authentication scheme advertised by an access point.
type AuthMode string

const (
	AuthOpen       AuthMode = "OPEN"
	AuthWEP        AuthMode = "WEP"
	AuthWPA        AuthMode = "WPA"
	AuthWPA2       AuthMode = "WPA2"
	AuthWPAWPA2    AuthMode = "WPA/WPA2"
	AuthWPA3       AuthMode = "WPA3"
	AuthWPA2WPA3   AuthMode = "WPA2/WPA3"
	AuthEnterprise AuthMode = "802.1X"
	AuthUnknown    AuthMode = "UNKNOWN"
)

// WiFiMeta is the access point metadata carried by Wi-Fi observations.
type WiFiMeta struct {
	Channel        int
	Frequency      int // MHz
	Auth           AuthMode
	PairwiseCipher string
	GroupCipher    string
	Hidden         bool
}

// Band returns the frequency band label ("2.4G", "5G", "6G" or "").
func (w WiFiMeta) Band() string {
	switch {
	case w.Frequency >= 5925:
		return "6G"
	case w.Frequency >= 5000:
		return "5G"
	case w.Frequency >= 2400:
		return "2.4G"
	}
	return ""
}

// Observation is one sighting pushed by a scanner.
type Observation struct {
	Address Address
	RSSI    int // dBm, -127..0
	Name    string
	Payload Payload
	Medium  Medium
	WiFi    *WiFiMeta // nil for BLE
	Seen    time.Time
}

// HasPayload reports whether raw advertisement bytes were captured.
func (o *Observation) HasPayload() bool { return o.Payload.n > 0 }

// ClampRSSI bounds a driver reading to the plausible -127..0 range.
func ClampRSSI(v int) int {
	if v > 0 {
		return 0
	}
	if v < -127 {
		return -127
	}
	return v
}

// RSSIToDistance estimates distance from RSSI using the log-distance path loss model.
// Formula: d = 10^((measuredPower - rssi) / (10 * n))
func RSSIToDistance(rssi, measuredPower, pathLossExp float64) float64 {
	if rssi >= 0 {
		return 0.1
	}
	d := math.Pow(10, (measuredPower-rssi)/(10*pathLossExp))
	if d < 0.1 {
		return 0.1
	}
	return d
}
