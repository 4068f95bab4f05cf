package foxhunt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/radio"
)

var (
	t0     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target = radio.MustParseAddress("AA:BB:CC:DD:EE:FF")
)

type listMatcher []filter.Entry

func (m listMatcher) Match(a radio.Address) (bool, bool) {
	return filter.MatchAddress(a, m), true
}

func ms(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

func newEngine() *Engine {
	e := New(listMatcher{"AABBCCDDEEFF"})
	e.Start()
	return e
}

func see(e *Engine, rssi, at int) bool {
	return e.Observe(radio.Observation{Address: target, RSSI: rssi, Medium: radio.MediumBLE}, ms(at))
}

func TestInterval(t *testing.T) {
	tests := []struct {
		rssi int
		want time.Duration
	}{
		{-40, 110 * time.Millisecond},
		{-45, 140 * time.Millisecond},
		{-35, 80 * time.Millisecond},
		{-26, 80*time.Millisecond - 9*55*time.Millisecond/10},
		{-50, 195 * time.Millisecond},
		{-60, 350 * time.Millisecond},
		{-70, 675 * time.Millisecond},
		{-80, 1250 * time.Millisecond},
		{-85, 1600 * time.Millisecond},
		{-86, 2800 * time.Millisecond},
		{-127, 2800 * time.Millisecond},
		{-25, 25 * time.Millisecond},
		{0, 25 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interval(tt.rssi), "rssi=%d", tt.rssi)
	}
}

func TestIntervalMonotonic(t *testing.T) {
	prev := Interval(-127)
	for rssi := -126; rssi <= 0; rssi++ {
		cur := Interval(rssi)
		assert.LessOrEqual(t, cur, prev, "rssi=%d", rssi)
		prev = cur
	}
}

func TestNoTargetIsSilent(t *testing.T) {
	e := newEngine()
	cmd, ok := e.Tick(ms(0))
	require.True(t, ok)
	assert.False(t, cmd.Audio)
	assert.False(t, cmd.Acquired)
}

func TestAcquisitionSignalledOnce(t *testing.T) {
	e := newEngine()
	require.True(t, see(e, -60, 0))

	cmd, _ := e.Tick(ms(0))
	assert.True(t, cmd.Acquired)

	see(e, -60, 5)
	cmd, _ = e.Tick(ms(10))
	assert.False(t, cmd.Acquired)

	// losing and regaining the lock does not repeat it
	cmd, _ = e.Tick(ms(4100))
	assert.True(t, cmd.Lost)
	see(e, -60, 4200)
	cmd, _ = e.Tick(ms(4200))
	assert.False(t, cmd.Acquired)
}

func TestPulseCadence(t *testing.T) {
	e := newEngine()
	see(e, -40, 0)

	cmd, _ := e.Tick(ms(0))
	require.True(t, cmd.Audio)
	require.True(t, cmd.Changed)

	cmd, _ = e.Tick(ms(50))
	assert.True(t, cmd.Audio)
	assert.False(t, cmd.Changed)

	cmd, _ = e.Tick(ms(60))
	assert.False(t, cmd.Audio)
	assert.True(t, cmd.Changed)

	// interval at -40 dBm is 110 ms from the pulse start
	cmd, _ = e.Tick(ms(100))
	assert.False(t, cmd.Audio)
	cmd, _ = e.Tick(ms(110))
	assert.True(t, cmd.Audio)

	s, _ := e.Snapshot()
	assert.Equal(t, ms(110), s.BeepStart)
}

func TestSaturationIsContinuous(t *testing.T) {
	e := newEngine()
	see(e, -25, 0)
	for now := 0; now <= 1000; now += 10 {
		cmd, _ := e.Tick(ms(now))
		require.True(t, cmd.Audio, "now=%d", now)
		require.True(t, cmd.Continuous)
	}

	// dropping out of saturation ends the long pulse on the next tick
	see(e, -60, 1005)
	cmd, _ := e.Tick(ms(1010))
	assert.False(t, cmd.Audio)
	assert.False(t, cmd.Continuous)
}

func TestLostTimeout(t *testing.T) {
	e := newEngine()
	see(e, -25, 0)
	cmd, _ := e.Tick(ms(4000))
	assert.True(t, cmd.Audio, "exactly at the timeout the lock holds")

	cmd, _ = e.Tick(ms(4001))
	assert.False(t, cmd.Audio)
	assert.True(t, cmd.Changed)
	assert.True(t, cmd.Lost)

	s, _ := e.Snapshot()
	assert.False(t, s.Locked)
	assert.False(t, s.Beeping)
}

func TestIgnoresOtherAddresses(t *testing.T) {
	e := newEngine()
	ok := e.Observe(radio.Observation{Address: radio.MustParseAddress("AA:BB:CC:00:00:00"), RSSI: -30}, ms(0))
	assert.False(t, ok)
	s, _ := e.Snapshot()
	assert.False(t, s.Locked)
}

func TestStoppedEngineDoesNothing(t *testing.T) {
	e := New(listMatcher{"AABBCC"})
	assert.False(t, see(e, -30, 0))
	cmd, ok := e.Tick(ms(0))
	require.True(t, ok)
	assert.Equal(t, Command{}, cmd)
}
