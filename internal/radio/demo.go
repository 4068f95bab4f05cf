package radio

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

var demoTemplates = []struct {
	Name    string
	Medium  Medium
	Company uint16
}{
	{"iPhone 15 Pro", MediumBLE, 0x004C},
	{"Galaxy S24 Ultra", MediumBLE, 0x0075},
	{"Pixel 9 Pro", MediumBLE, 0x00E0},
	{"AirPods Pro", MediumBLE, 0x004C},
	{"Apple Watch", MediumBLE, 0x004C},
	{"Fitbit Charge 6", MediumBLE, 0x03DA},
	{"Tile Tracker", MediumBLE, 0x02FF},
	{"", MediumBLE, 0x0006},
	{"", MediumBLE, 0x0059},
	{"HomeNetwork_2G", MediumWiFi, 0},
	{"XFINITY-7A3F", MediumWiFi, 0},
	{"TP-Link_5GHz", MediumWiFi, 0},
	{"AndroidAP", MediumWiFi, 0},
	{"", MediumWiFi, 0},
}

type demoDevice struct {
	addr      Address
	name      string
	medium    Medium
	company   uint16
	baseRSSI  float64
	phase     float64
	amplitude float64
	wifi      *WiFiMeta
}

// 5 GHz channel options for demo access points.
var wifi5GChannels = []int{36, 40, 44, 48, 149, 153, 157, 161}

var demoAuth = []AuthMode{AuthWPA2, AuthWPA2WPA3, AuthWPA3, AuthOpen, AuthWPAWPA2}

// Demo generates synthetic BLE and Wi-Fi traffic for running without
// radio hardware. It implements both Streamer and Poller.
type Demo struct {
	mu      sync.Mutex
	rng     *rand.Rand
	devices []demoDevice
	start   time.Time
	cancel  context.CancelFunc
}

// NewDemo creates a demo radio. When target is non-nil it is included as a
// BLE device whose signal slowly swings through the whole proximity range.
func NewDemo(seed int64, target *Address) *Demo {
	rng := rand.New(rand.NewSource(seed))
	d := &Demo{rng: rng, start: time.Now()}

	for _, tmpl := range demoTemplates {
		dev := demoDevice{
			addr:      randomAddress(rng),
			name:      tmpl.Name,
			medium:    tmpl.Medium,
			company:   tmpl.Company,
			baseRSSI:  -40 - rng.Float64()*50, // -40 to -90 dBm
			phase:     rng.Float64() * 2 * math.Pi,
			amplitude: 3 + rng.Float64()*8,
		}
		if tmpl.Medium == MediumWiFi {
			m := &WiFiMeta{Auth: demoAuth[rng.Intn(len(demoAuth))], Hidden: tmpl.Name == ""}
			if rng.Intn(2) == 0 {
				m.Frequency = 2412 + rng.Intn(11)*5
				m.Channel = (m.Frequency - 2407) / 5
			} else {
				m.Channel = wifi5GChannels[rng.Intn(len(wifi5GChannels))]
				m.Frequency = 5000 + m.Channel*5
			}
			if m.Auth != AuthOpen {
				m.PairwiseCipher, m.GroupCipher = "CCMP", "CCMP"
			}
			dev.wifi = m
		}
		d.devices = append(d.devices, dev)
	}

	if target != nil {
		d.devices = append(d.devices, demoDevice{
			addr:      *target,
			name:      "Target",
			medium:    MediumBLE,
			company:   0x004C,
			baseRSSI:  -57,
			amplitude: 33, // -90 .. -24 dBm
		})
	}
	return d
}

// Devices returns the demo device addresses.
func (d *Demo) Devices() []Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Address, len(d.devices))
	for i, dev := range d.devices {
		out[i] = dev.addr
	}
	return out
}

// Start streams BLE advertisements every 200ms until Stop.
func (d *Demo) Start(h Handler) error {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, obs := range d.emit(MediumBLE) {
					h(obs)
				}
			}
		}
	}()
	return nil
}

// Stop halts the BLE stream.
func (d *Demo) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return nil
}

// Scan returns one Wi-Fi batch after a short simulated dwell.
func (d *Demo) Scan(ctx context.Context) ([]Observation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(300 * time.Millisecond):
	}
	return d.emit(MediumWiFi), nil
}

func (d *Demo) emit(m Medium) []Observation {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := time.Since(d.start).Seconds()
	now := time.Now()
	var out []Observation
	for _, dev := range d.devices {
		if dev.medium != m {
			continue
		}
		// Sinusoidal RSSI fluctuation + noise
		rssi := dev.baseRSSI + dev.amplitude*math.Sin(t*0.2+dev.phase) + (d.rng.Float64()-0.5)*4

		obs := Observation{
			Address: dev.addr,
			RSSI:    ClampRSSI(int(rssi)),
			Name:    dev.name,
			Medium:  dev.medium,
			Seen:    now,
		}
		if dev.wifi != nil {
			meta := *dev.wifi
			obs.WiFi = &meta
		}
		if m == MediumBLE {
			obs.Payload = NewPayload(demoAdvertisement(dev.name, dev.company))
		}
		out = append(out, obs)
	}
	return out
}

func demoAdvertisement(name string, company uint16) []byte {
	b := []byte{0x02, 0x01, 0x06}
	if company != 0 {
		b = append(b, 0x05, 0xFF, byte(company), byte(company>>8), 0x10, 0x05)
	}
	if name != "" && len(b)+2+len(name) <= 64 {
		b = append(b, byte(len(name)+1), 0x09)
		b = append(b, name...)
	}
	return b
}

func randomAddress(rng *rand.Rand) Address {
	var a Address
	for i := range a {
		a[i] = byte(rng.Intn(256))
	}
	return a
}
