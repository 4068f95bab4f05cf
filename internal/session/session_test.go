package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/clock"
	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/logger"
	"oui-spy.klederson.com/internal/radio"
)

var (
	t0     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target = radio.MustParseAddress("AA:BB:CC:DD:EE:FF")
)

type fakeStreamer struct {
	mu       sync.Mutex
	h        radio.Handler
	startErr error
	starts   int
	stops    int
	hold     chan struct{} // Start waits on it when set
}

func (f *fakeStreamer) Start(h radio.Handler) error {
	if f.hold != nil {
		<-f.hold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.h = h
	f.starts++
	return nil
}

func (f *fakeStreamer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.h = nil
	f.stops++
	return nil
}

func (f *fakeStreamer) Emit(obs radio.Observation) {
	f.mu.Lock()
	h := f.h
	f.mu.Unlock()
	if h != nil {
		h(obs)
	}
}

type fakePoller struct {
	mu    sync.Mutex
	batch []radio.Observation
	err   error
	scans int
}

func (f *fakePoller) Scan(ctx context.Context) ([]radio.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.err != nil {
		return nil, f.err
	}
	return append([]radio.Observation(nil), f.batch...), nil
}

type harness struct {
	c       *Coordinator
	clk     *clock.Mock
	rec     *actuator.Recorder
	ble     *fakeStreamer
	wifi    *fakePoller
	filters *filter.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clk:     clock.NewMock(t0),
		ble:     &fakeStreamer{},
		wifi:    &fakePoller{},
		filters: filter.NewStore(nil, logger.Discard()),
	}
	h.rec = actuator.NewRecorder(h.clk)
	h.c = New(Options{
		Radio:    radio.Radio{BLE: h.ble, WiFi: h.wifi},
		Filters:  h.filters,
		Actuator: h.rec,
		Clock:    h.clk,
		Logger:   logger.Discard(),
	})
	t.Cleanup(func() { _ = h.c.Stop() })
	return h
}

// next advances the mock clock until an event of kind arrives.
func (h *harness) next(t *testing.T, kind EventKind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-h.c.Events():
			if e.Kind == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		default:
			h.clk.Advance(10 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func (h *harness) addTarget(t *testing.T) {
	t.Helper()
	_, err := h.c.AddFilter("AA:BB:CC")
	require.NoError(t, err)
}

func TestStartRequiresFilters(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.StartDetection(radio.MediumBLE, false), ErrNoFilters)
	assert.ErrorIs(t, h.c.StartFoxHunt(false), ErrNoFilters)
	assert.Equal(t, Stopped, h.c.Mode())
}

func TestStopWhenIdle(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.Stop(), ErrNotRunning)
}

func TestUnsupportedMedium(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	c := New(Options{
		Radio:   radio.Radio{BLE: h.ble},
		Filters: h.filters,
		Clock:   h.clk,
		Logger:  logger.Discard(),
	})
	assert.ErrorIs(t, c.StartDetection(radio.MediumWiFi, false), radio.ErrUnavailable)
	assert.ErrorIs(t, c.StartBaseline(baseline.Config{Medium: radio.MediumBoth}), radio.ErrUnavailable)
}

func TestSessionsAreMutuallyExclusive(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)

	require.NoError(t, h.c.StartDetection(radio.MediumBLE, false))
	assert.Equal(t, Detecting, h.c.Mode())

	assert.ErrorIs(t, h.c.StartFoxHunt(false), ErrBusy)
	assert.ErrorIs(t, h.c.StartDetection(radio.MediumWiFi, false), ErrBusy)
	assert.ErrorIs(t, h.c.StartBaseline(baseline.DefaultConfig()), ErrBusy)

	require.NoError(t, h.c.Stop())
	assert.Equal(t, Stopped, h.c.Mode())
	assert.Equal(t, 1, h.ble.stops)

	require.NoError(t, h.c.StartBaseline(baseline.Config{Medium: radio.MediumBLE}))
	assert.True(t, h.c.Status().Baseline)
	assert.ErrorIs(t, h.c.StartDetection(radio.MediumBLE, false), ErrBusy)
}

func TestDetectionAlertsOnMatch(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	require.NoError(t, h.c.StartDetection(radio.MediumBLE, false))
	h.next(t, EventSessionStarted)

	// non-matching traffic changes nothing
	h.ble.Emit(radio.Observation{Address: radio.MustParseAddress("11:22:33:44:55:66"), RSSI: -30, Medium: radio.MediumBLE})
	h.ble.Emit(radio.Observation{Address: target, RSSI: -52, Medium: radio.MediumBLE})

	e := h.next(t, EventAlert)
	assert.Equal(t, target, e.Alert.Address)
	assert.Equal(t, -52, e.Alert.RSSI)
	assert.Equal(t, KindDetect, e.Session)

	require.Eventually(t, func() bool { return h.rec.Pulses() >= 1 }, time.Second, time.Millisecond)

	st := h.c.Status()
	assert.Equal(t, Detecting, st.Mode)
	assert.Equal(t, radio.MediumBLE, st.Medium)
	assert.Equal(t, 1, st.Detect.Alerts)
}

func TestDetectionStealthKeepsIndicator(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	require.NoError(t, h.c.StartDetection(radio.MediumBLE, true))
	h.ble.Emit(radio.Observation{Address: target, RSSI: -60, Medium: radio.MediumBLE})
	h.next(t, EventAlert)

	require.Eventually(t, func() bool {
		for _, e := range h.rec.Events() {
			if e.Output == actuator.OutputIndicator && e.On {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	assert.Zero(t, h.rec.Pulses())
	assert.True(t, h.c.Status().Stealth)
}

func TestDetectionOverWiFiBatches(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.wifi.batch = []radio.Observation{{
		Address: target,
		RSSI:    -71,
		Name:    "hotspot",
		Medium:  radio.MediumWiFi,
		WiFi:    &radio.WiFiMeta{Channel: 6, Auth: radio.AuthWPA2},
	}}
	require.NoError(t, h.c.StartDetection(radio.MediumWiFi, false))

	e := h.next(t, EventAlert)
	assert.Equal(t, radio.MediumWiFi, e.Alert.Medium)
	assert.Equal(t, -71, e.Alert.RSSI)
	assert.Zero(t, h.ble.starts, "wifi-only detection must not touch the BLE radio")
}

func TestScanFailureAbortsSession(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.wifi.err = errors.New("interface down")
	require.NoError(t, h.c.StartDetection(radio.MediumBoth, false))

	e := h.next(t, EventSessionFailed)
	assert.ErrorIs(t, e.Err, radio.ErrScanFailed)

	require.Eventually(t, func() bool { return h.c.Mode() == Stopped }, time.Second, time.Millisecond)
	st := h.c.Status()
	assert.ErrorIs(t, st.LastFailure, radio.ErrScanFailed)
	assert.ErrorIs(t, h.c.Stop(), ErrNotRunning)
	assert.Equal(t, 1, h.ble.stops)
}

func TestBLEStartFailure(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.ble.startErr = errors.New("adapter missing")

	err := h.c.StartFoxHunt(false)
	assert.ErrorIs(t, err, radio.ErrScanFailed)
	assert.Equal(t, Stopped, h.c.Mode())
	assert.ErrorIs(t, h.c.Status().LastFailure, radio.ErrScanFailed)

	h.ble.startErr = nil
	require.NoError(t, h.c.StartFoxHunt(false))
	assert.Nil(t, h.c.Status().LastFailure)
}

func TestSlowRadioStartDoesNotBlockStatus(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.ble.hold = make(chan struct{})

	started := make(chan error, 1)
	go func() {
		started <- h.c.StartBaseline(baseline.Config{Medium: radio.MediumBLE, Duration: time.Minute})
	}()

	require.Eventually(t, func() bool { return h.c.Status().Baseline }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.c.StartDetection(radio.MediumBLE, false), ErrBusy)
	assert.Equal(t, radio.MediumBLE, h.c.Status().Medium)

	close(h.ble.hold)
	require.NoError(t, <-started)
	require.NoError(t, h.c.Stop())
	assert.False(t, h.c.Status().Baseline)
}

func TestStopDuringSlowRadioStart(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.ble.hold = make(chan struct{})

	started := make(chan error, 1)
	go func() { started <- h.c.StartDetection(radio.MediumBLE, false) }()
	require.Eventually(t, func() bool { return h.c.Mode() == Detecting }, time.Second, 5*time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- h.c.Stop() }()
	close(h.ble.hold)

	require.NoError(t, <-started)
	require.NoError(t, <-stopped)
	assert.Equal(t, Stopped, h.c.Mode())
	assert.ErrorIs(t, h.c.Stop(), ErrNotRunning)
}

func TestFoxHuntAcquisitionAndPulses(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.AddFilter("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	require.NoError(t, h.c.StartFoxHunt(false))

	h.ble.Emit(radio.Observation{Address: target, RSSI: -40, Medium: radio.MediumBLE})
	e := h.next(t, EventAcquired)
	assert.Equal(t, target, e.Target)

	// three acquisition pulses, then proximity ticking
	require.Eventually(t, func() bool {
		h.ble.Emit(radio.Observation{Address: target, RSSI: -40, Medium: radio.MediumBLE})
		h.clk.Advance(10 * time.Millisecond)
		return h.rec.Pulses() >= 5
	}, 2*time.Second, time.Millisecond)

	st := h.c.Status()
	assert.Equal(t, FoxHunting, st.Mode)
	assert.True(t, st.Fox.Locked)

	// silence after the lost timeout
	e = h.next(t, EventLost)
	assert.Equal(t, target, e.Target)
}

func TestBaselineSurvey(t *testing.T) {
	h := newHarness(t)
	ap := radio.Observation{
		Address: radio.MustParseAddress("10:20:30:40:50:60"),
		RSSI:    -55,
		Name:    "office",
		Medium:  radio.MediumWiFi,
		WiFi:    &radio.WiFiMeta{Channel: 11, Auth: radio.AuthWPA2WPA3},
	}
	h.wifi.batch = []radio.Observation{ap}

	require.NoError(t, h.c.StartBaseline(baseline.Config{
		Medium:          radio.MediumBoth,
		Duration:        time.Second, // clamped to 5s
		RSSIFloor:       -90,
		CapturePayloads: true,
	}))
	st := h.c.Status()
	assert.True(t, st.Baseline)
	assert.Equal(t, 5*time.Second, st.BaselineConfig.Duration)

	tag := radio.Observation{
		Address: radio.MustParseAddress("AA:BB:CC:00:00:01"),
		RSSI:    -48,
		Medium:  radio.MediumBLE,
		Payload: radio.NewPayload([]byte{0x03, 0xFF, 0x4C, 0x00}),
	}
	h.ble.Emit(tag)
	h.ble.Emit(radio.Observation{Address: radio.MustParseAddress("AA:BB:CC:00:00:02"), RSSI: -95, Medium: radio.MediumBLE})

	e := h.next(t, EventBaselineDone)
	require.NotNil(t, e.Snapshot)
	require.Len(t, e.Snapshot.Records, 2)
	assert.Equal(t, tag.Address, e.Snapshot.Records[0].Address)
	assert.Equal(t, ap.Address, e.Snapshot.Records[1].Address)
	assert.GreaterOrEqual(t, e.Snapshot.Finished.Sub(e.Snapshot.Started), 5*time.Second)

	assert.Same(t, e.Snapshot, h.c.LastBaseline())

	els, err := h.c.DecodePayload(tag.Address)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "Apple Inc.", els[0].Company)

	_, err = h.c.DecodePayload(ap.Address)
	assert.ErrorIs(t, err, ErrNoPayload)

	h.next(t, EventSessionStopped)
	assert.False(t, h.c.Status().Baseline)
	require.Eventually(t, func() bool { return h.rec.Pulses() == 3 }, time.Second, time.Millisecond)

	// a baseline record can be promoted to the watch-list
	entry, err := h.c.Promote(tag.Address, false)
	require.NoError(t, err)
	assert.Equal(t, filter.Entry("AABBCC"), entry)
}

func TestStoppingBaselinePublishesPartialResults(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.StartBaseline(baseline.Config{Medium: radio.MediumBLE, Duration: time.Minute, RSSIFloor: -100}))
	h.ble.Emit(radio.Observation{Address: target, RSSI: -70, Medium: radio.MediumBLE})
	require.NoError(t, h.c.Stop())

	snap := h.c.LastBaseline()
	require.NotNil(t, snap)
	require.Len(t, snap.Records, 1)
	assert.False(t, h.c.Status().Baseline)
}

func TestDecodeWithoutResults(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.DecodePayload(target)
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Nil(t, h.c.LastBaseline())
}

func TestFilterOperations(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.AddFilter("zz")
	assert.ErrorIs(t, err, filter.ErrInvalidFormat)

	res, err := h.c.ReplaceFilters("AA:BB:CC\n11:22:33:44:55:66\n")
	require.NoError(t, err)
	assert.Len(t, res.Stored, 2)

	list, err := h.c.Filters()
	require.NoError(t, err)
	assert.Equal(t, []filter.Entry{"AABBCC", "112233445566"}, list)

	require.NoError(t, h.c.ClearFilters())
	assert.Zero(t, h.c.Status().Filters)
}

func TestBootAndBeep(t *testing.T) {
	h := newHarness(t)
	h.c.Boot()
	assert.Equal(t, 2, h.rec.Pulses())
	h.c.Beep()
	assert.Equal(t, 3, h.rec.Pulses())
}

func TestNoObservationsRoutedWhenStopped(t *testing.T) {
	h := newHarness(t)
	h.addTarget(t)
	h.c.onObservation(radio.Observation{Address: target, RSSI: -30, Medium: radio.MediumBLE})
	st, _ := h.c.detect.Snapshot()
	assert.True(t, st.LastSeen.IsZero())
}
