// Package baseline inventories every device seen during a timed survey.
package baseline

import (
	"errors"
	"time"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

// ErrInvalidMedium is returned for a survey with no medium selected.
var ErrInvalidMedium = errors.New("baseline medium must be wifi, ble or both")

// Config describes one survey run.
type Config struct {
	Medium          radio.Medium
	Duration        time.Duration
	RSSIFloor       int // dBm; weaker observations are discarded
	CapturePayloads bool
}

// DefaultConfig returns a Wi-Fi survey with the default duration and the
// lowest floor.
func DefaultConfig() Config {
	return Config{
		Medium:    radio.MediumWiFi,
		Duration:  config.BaselineDefaultDuration,
		RSSIFloor: config.RSSIFloorMin,
	}
}

// Normalize clamps duration and floor into range and rejects an unknown medium.
func (c Config) Normalize() (Config, error) {
	switch c.Medium {
	case radio.MediumWiFi, radio.MediumBLE, radio.MediumBoth:
	default:
		return c, ErrInvalidMedium
	}
	c.Duration = clamp(c.Duration, config.BaselineMinDuration, config.BaselineMaxDuration)
	c.RSSIFloor = clamp(c.RSSIFloor, config.RSSIFloorMin, config.RSSIFloorMax)
	return c, nil
}

func clamp[T int | time.Duration](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
