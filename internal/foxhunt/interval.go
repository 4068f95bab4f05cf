package foxhunt

import (
	"time"

	"oui-spy.klederson.com/internal/config"
)

// band maps [lo, hi) dBm linearly onto [long, short] pulse intervals.
type band struct {
	lo, hi      int
	long, short time.Duration
}

var bands = []band{
	{-35, -25, 80 * time.Millisecond, 25 * time.Millisecond},
	{-45, -35, 140 * time.Millisecond, 80 * time.Millisecond},
	{-55, -45, 250 * time.Millisecond, 140 * time.Millisecond},
	{-65, -55, 450 * time.Millisecond, 250 * time.Millisecond},
	{-75, -65, 900 * time.Millisecond, 450 * time.Millisecond},
	{-85, -75, 1600 * time.Millisecond, 900 * time.Millisecond},
}

// Interval returns the silence-to-pulse interval for rssi: the stronger the
// signal, the shorter the interval. At or above the saturation level the
// shortest interval is returned.
func Interval(rssi int) time.Duration {
	if rssi >= config.FoxSaturationRSSI {
		return bands[0].short
	}
	for _, b := range bands {
		if rssi >= b.lo && rssi < b.hi {
			span := time.Duration(b.hi - b.lo)
			return b.long + time.Duration(rssi-b.lo)*(b.short-b.long)/span
		}
	}
	return config.FoxFarInterval
}
