package radar

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

// CellDistance computes the distance from a cell to the radar center,
// accounting for terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle computes the angle from center to a cell.
// Returns radians in [0, 2π), where 0=north, increasing clockwise.
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return NormalizeAngle(math.Atan2(dx, -dy))
}

// RingChar returns the character used to draw a ring at the given angle.
func RingChar(angle float64) rune {
	const chars = `-/|\-/|\`
	sector := int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8
	return rune(chars[sector])
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Bearing places an address at a stable angle. Observations carry no
// direction, so the angle only keeps a device from jumping between frames.
func Bearing(a radio.Address) float64 {
	h := sha256.Sum256(a[:])
	return float64(binary.BigEndian.Uint16(h[:2])) / 65536 * 2 * math.Pi
}

// RSSIToRadius converts a signal strength to radar units through the
// path loss distance estimate, clamped to the outer ring.
func RSSIToRadius(rssi int, radarRadius float64) float64 {
	meters := radio.RSSIToDistance(float64(rssi), config.MeasuredPower, config.PathLossExp)
	if meters > config.MaxRange {
		return radarRadius
	}
	return meters / config.MaxRange * radarRadius
}
