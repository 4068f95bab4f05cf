package radio

import (
	"context"
	"errors"
)

var (
	// ErrScanFailed wraps any failure to start or stop a scan.
	ErrScanFailed = errors.New("scan failed")
	// ErrUnavailable is returned when a session needs a medium with no scanner.
	ErrUnavailable = errors.New("radio unavailable")
)

// Handler receives streamed observations. It runs on the radio stack's
// goroutine and must return quickly.
type Handler func(Observation)

// Streamer delivers a continuous observation stream until stopped.
type Streamer interface {
	Start(h Handler) error
	Stop() error
}

// Poller performs one full scan cycle and returns the batch.
type Poller interface {
	Scan(ctx context.Context) ([]Observation, error)
}

// Radio bundles the scan sources available to sessions. Either may be nil.
type Radio struct {
	BLE  Streamer
	WiFi Poller
}

// Supports reports whether every medium in m has a scanner.
func (r Radio) Supports(m Medium) bool {
	if m.Has(MediumBLE) && r.BLE == nil {
		return false
	}
	if m.Has(MediumWiFi) && r.WiFi == nil {
		return false
	}
	return m != 0
}
