package radar

import (
	"math"
	"time"

	"oui-spy.klederson.com/internal/config"
)

// Sweep manages the rotating sweep line state.
type Sweep struct {
	Angle float64 // radians [0, 2π)
	start time.Time
}

// NewSweep creates a sweep pointing north at start.
func NewSweep(start time.Time) *Sweep {
	return &Sweep{start: start}
}

// Update advances the sweep angle to now.
func (s *Sweep) Update(now time.Time) {
	elapsed := now.Sub(s.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	rps := float64(config.SweepSpeedRPM) / 60.0
	s.Angle = math.Mod(elapsed*rps*2*math.Pi, 2*math.Pi)
}

// Degrees returns the current sweep angle in degrees.
func (s *Sweep) Degrees() float64 {
	return s.Angle * 180 / math.Pi
}

// Intensity returns the glow [0, 1] for a cell angle: 1 at the sweep head
// falling linearly to 0 at the end of the trail.
func (s *Sweep) Intensity(cellAngle float64) float64 {
	diff := NormalizeAngle(s.Angle - cellAngle)
	trailRad := config.SweepTrailDeg * math.Pi / 180.0
	if diff > trailRad {
		return 0
	}
	return 1.0 - diff/trailRad
}
