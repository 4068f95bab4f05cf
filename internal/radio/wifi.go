package radio

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"oui-spy.klederson.com/internal/config"
)

// WiFiScanner performs full access point scans.
// Prefers nmcli (no root needed), falls back to iw (needs root).
type WiFiScanner struct {
	iface    string
	useNmcli bool
	timeout  time.Duration
}

// NewWiFiScanner creates a Wi-Fi scanner. If iface is empty, auto-detects.
func NewWiFiScanner(iface string) *WiFiScanner {
	useNmcli := nmcliAvailable()
	if iface == "" && !useNmcli {
		iface = detectWiFiInterface()
	}
	return &WiFiScanner{
		iface:    iface,
		useNmcli: useNmcli,
		timeout:  config.WiFiScanTimeout,
	}
}

// Scan runs one scan cycle and returns every access point seen.
func (s *WiFiScanner) Scan(ctx context.Context) ([]Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		out []byte
		err error
	)
	if s.useNmcli {
		// Cached results from NetworkManager; it rescans on its own.
		out, err = exec.CommandContext(ctx, "nmcli", "-t", "-f",
			"BSSID,SSID,FREQ,CHAN,SIGNAL,SECURITY", "dev", "wifi", "list").Output()
	} else {
		out, err = exec.CommandContext(ctx, "iw", "dev", s.iface, "scan").Output()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: wifi scan: %v", ErrScanFailed, err)
	}

	now := time.Now()
	var obs []Observation
	if s.useNmcli {
		obs = parseNmcliScan(string(out))
	} else {
		obs = parseIWScan(string(out))
	}
	for i := range obs {
		obs[i].Seen = now
	}
	return obs, nil
}

// parseNmcliScan parses nmcli terse output.
// Format per line: BSSID:SSID:FREQ:CHAN:SIGNAL:SECURITY
// In terse mode, literal colons in values are escaped as \:
func parseNmcliScan(output string) []Observation {
	var results []Observation

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		const placeholder = "\x00"
		escaped := strings.ReplaceAll(line, `\:`, placeholder)
		parts := strings.Split(escaped, ":")
		for i := range parts {
			parts[i] = strings.ReplaceAll(parts[i], placeholder, ":")
		}
		if len(parts) < 5 {
			continue
		}

		addr, err := ParseAddress(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		ssid := strings.TrimSpace(parts[1])
		freq, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(parts[2]), " MHz"))
		channel, _ := strconv.Atoi(strings.TrimSpace(parts[3]))

		rssi := -80
		if signal, err := strconv.Atoi(strings.TrimSpace(parts[4])); err == nil {
			// SIGNAL is 0-100 percent; 100% ~ -30dBm, 0% ~ -100dBm
			rssi = -100 + signal*70/100
		}

		security := ""
		if len(parts) >= 6 {
			security = strings.TrimSpace(parts[5])
		}

		results = append(results, Observation{
			Address: addr,
			RSSI:    ClampRSSI(rssi),
			Name:    ClipName(ssid),
			Medium:  MediumWiFi,
			WiFi: &WiFiMeta{
				Channel:   channel,
				Frequency: freq,
				Auth:      authFromNmcli(security),
				Hidden:    ssid == "",
			},
		})
	}

	return results
}

// authFromNmcli maps the SECURITY column ("WPA1 WPA2", "WPA2 802.1X", "--").
func authFromNmcli(sec string) AuthMode {
	if sec == "" || sec == "--" {
		return AuthOpen
	}
	has := func(tok string) bool {
		for _, f := range strings.Fields(sec) {
			if f == tok {
				return true
			}
		}
		return false
	}
	switch {
	case has("802.1X"):
		return AuthEnterprise
	case has("WPA2") && has("WPA3"):
		return AuthWPA2WPA3
	case has("WPA3"):
		return AuthWPA3
	case has("WPA1") && has("WPA2"):
		return AuthWPAWPA2
	case has("WPA2"):
		return AuthWPA2
	case has("WPA1"), has("WPA"):
		return AuthWPA
	case has("WEP"):
		return AuthWEP
	}
	return AuthUnknown
}

// parseIWScan parses the output of `iw dev <iface> scan`.
func parseIWScan(output string) []Observation {
	var results []Observation

	type block struct {
		obs      Observation
		rsn, wpa bool
		sae, eap bool
		privacy  bool
	}
	var cur *block

	flush := func() {
		if cur == nil {
			return
		}
		m := cur.obs.WiFi
		switch {
		case cur.eap:
			m.Auth = AuthEnterprise
		case cur.rsn && cur.sae && cur.wpa:
			m.Auth = AuthWPA2WPA3
		case cur.rsn && cur.sae:
			m.Auth = AuthWPA3
		case cur.rsn && cur.wpa:
			m.Auth = AuthWPAWPA2
		case cur.rsn:
			m.Auth = AuthWPA2
		case cur.wpa:
			m.Auth = AuthWPA
		case cur.privacy:
			m.Auth = AuthWEP
		default:
			m.Auth = AuthOpen
		}
		m.Hidden = cur.obs.Name == ""
		results = append(results, cur.obs)
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		// New BSS block: "BSS aa:bb:cc:dd:ee:ff(on wlan0)"
		if strings.HasPrefix(line, "BSS ") {
			flush()
			mac := strings.TrimPrefix(line, "BSS ")
			if idx := strings.IndexByte(mac, '('); idx >= 0 {
				mac = mac[:idx]
			}
			addr, err := ParseAddress(strings.TrimSpace(mac))
			if err != nil {
				continue
			}
			cur = &block{obs: Observation{
				Address: addr,
				RSSI:    -80,
				Medium:  MediumWiFi,
				WiFi:    &WiFiMeta{},
			}}
			continue
		}
		if cur == nil {
			continue
		}

		trimmed := strings.TrimSpace(line)
		m := cur.obs.WiFi
		switch {
		case strings.HasPrefix(trimmed, "SSID: "):
			cur.obs.Name = ClipName(strings.TrimPrefix(trimmed, "SSID: "))
		case trimmed == "SSID:":
			cur.obs.Name = ""
		case strings.HasPrefix(trimmed, "freq: "):
			f := strings.TrimPrefix(trimmed, "freq: ")
			if v, err := strconv.ParseFloat(f, 64); err == nil {
				m.Frequency = int(v)
			}
		case strings.HasPrefix(trimmed, "signal: "):
			sig := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, "signal: "), " dBm"))
			if v, err := strconv.ParseFloat(sig, 64); err == nil {
				cur.obs.RSSI = ClampRSSI(int(v))
			}
		case strings.HasPrefix(trimmed, "DS Parameter set: channel "):
			if v, err := strconv.Atoi(strings.TrimPrefix(trimmed, "DS Parameter set: channel ")); err == nil {
				m.Channel = v
			}
		case strings.HasPrefix(trimmed, "* primary channel: ") && m.Channel == 0:
			if v, err := strconv.Atoi(strings.TrimPrefix(trimmed, "* primary channel: ")); err == nil {
				m.Channel = v
			}
		case strings.HasPrefix(trimmed, "capability:"):
			cur.privacy = strings.Contains(trimmed, "Privacy")
		case strings.HasPrefix(trimmed, "RSN:"):
			cur.rsn = true
		case strings.HasPrefix(trimmed, "WPA:"):
			cur.wpa = true
		case strings.HasPrefix(trimmed, "* Group cipher: "):
			if m.GroupCipher == "" {
				m.GroupCipher = strings.TrimPrefix(trimmed, "* Group cipher: ")
			}
		case strings.HasPrefix(trimmed, "* Pairwise ciphers: "):
			if m.PairwiseCipher == "" {
				m.PairwiseCipher = strings.TrimPrefix(trimmed, "* Pairwise ciphers: ")
			}
		case strings.HasPrefix(trimmed, "* Authentication suites: "):
			suites := strings.TrimPrefix(trimmed, "* Authentication suites: ")
			if strings.Contains(suites, "SAE") {
				cur.sae = true
			}
			if strings.Contains(suites, "IEEE 802.1X") {
				cur.eap = true
			}
		}
	}
	flush()

	return results
}

func nmcliAvailable() bool {
	_, err := exec.LookPath("nmcli")
	return err == nil
}

func iwAvailable() bool {
	_, err := exec.LookPath("iw")
	return err == nil
}

// WiFiScannerAvailable checks if nmcli or iw is available on the system.
func WiFiScannerAvailable() bool {
	return nmcliAvailable() || iwAvailable()
}

// detectWiFiInterface finds the first wireless interface via `iw dev`.
func detectWiFiInterface() string {
	out, err := exec.Command("iw", "dev").Output()
	if err != nil {
		return "wlan0"
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "Interface ") {
			return strings.TrimPrefix(line, "Interface ")
		}
	}
	return "wlan0"
}
