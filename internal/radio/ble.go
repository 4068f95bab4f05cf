package radio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"oui-spy.klederson.com/internal/config"
	"tinygo.org/x/bluetooth"
)

// BLEScanner streams advertisements from a host Bluetooth adapter.
type BLEScanner struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error

	running atomic.Bool
	done    chan struct{}
}

// NewBLEScanner creates a scanner on the default adapter.
func NewBLEScanner() *BLEScanner {
	return &BLEScanner{
		adapter: bluetooth.DefaultAdapter,
	}
}

// Start enables the adapter and begins scanning in a goroutine. Each
// advertisement is converted to an Observation and passed to h.
func (s *BLEScanner) Start(h Handler) error {
	s.enableOnce.Do(func() {
		s.enableErr = s.adapter.Enable()
	})
	if s.enableErr != nil {
		return fmt.Errorf("%w: enable BLE adapter: %v (try running with sudo or setcap cap_net_admin+ep)", ErrScanFailed, s.enableErr)
	}
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: BLE scan already running", ErrScanFailed)
	}

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !s.running.Load() {
				return
			}
			obs, ok := convertScanResult(result)
			if ok {
				h(obs)
			}
		})
	}()
	return nil
}

// Stop halts the scan and waits briefly for the scan goroutine to exit.
func (s *BLEScanner) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.adapter.StopScan(); err != nil {
		return fmt.Errorf("%w: stop BLE scan: %v", ErrScanFailed, err)
	}
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
	return nil
}

func convertScanResult(result bluetooth.ScanResult) (Observation, bool) {
	addr, err := ParseAddress(result.Address.String())
	if err != nil {
		// macOS reports opaque UUIDs instead of hardware addresses.
		return Observation{}, false
	}

	name := ClipName(result.LocalName())
	raw := result.Bytes()
	if len(raw) == 0 {
		raw = synthesizePayload(name, result.ManufacturerData())
	}

	return Observation{
		Address: addr,
		RSSI:    ClampRSSI(int(result.RSSI)),
		Name:    name,
		Payload: NewPayload(raw),
		Medium:  MediumBLE,
		Seen:    time.Now(),
	}, true
}

// synthesizePayload rebuilds AD structures from parsed fields for stacks
// (BlueZ) that do not expose the raw advertisement.
func synthesizePayload(name string, mfrs []bluetooth.ManufacturerDataElement) []byte {
	out := make([]byte, 0, config.MaxPayloadLen)
	appendAD := func(typ byte, data []byte) {
		if len(out)+2+len(data) > config.MaxPayloadLen || len(data) > 254 {
			return
		}
		out = append(out, byte(len(data)+1), typ)
		out = append(out, data...)
	}
	if name != "" {
		appendAD(0x09, []byte(name))
	}
	for _, m := range mfrs {
		data := make([]byte, 0, 2+len(m.Data))
		data = append(data, byte(m.CompanyID), byte(m.CompanyID>>8))
		data = append(data, m.Data...)
		appendAD(0xFF, data)
	}
	return out
}
