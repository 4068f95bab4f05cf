package baseline

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAgg(t *testing.T, cfg Config) *Aggregator {
	t.Helper()
	cfg, err := cfg.Normalize()
	require.NoError(t, err)
	return NewAggregator(cfg, t0)
}

func obs(addr string, m radio.Medium, rssi int, name string) radio.Observation {
	return radio.Observation{
		Address: radio.MustParseAddress(addr),
		RSSI:    rssi,
		Name:    name,
		Medium:  m,
		Seen:    t0,
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg, err := Config{Medium: radio.MediumBLE, Duration: time.Second, RSSIFloor: -120}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, config.BaselineMinDuration, cfg.Duration)
	assert.Equal(t, -100, cfg.RSSIFloor)

	cfg, err = Config{Medium: radio.MediumBoth, Duration: time.Hour, RSSIFloor: 0}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, config.BaselineMaxDuration, cfg.Duration)
	assert.Equal(t, -10, cfg.RSSIFloor)

	_, err = Config{Duration: time.Minute}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidMedium)

	_, err = DefaultConfig().Normalize()
	assert.NoError(t, err)
}

func TestMergeAcrossMedia(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBoth, RSSIFloor: -100})
	require.True(t, a.Ingest(obs("AA:BB:CC:DD:EE:FF", radio.MediumWiFi, -60, "Foo")))
	require.True(t, a.Ingest(obs("AA:BB:CC:DD:EE:FF", radio.MediumBLE, -50, "")))

	snap := a.Finish(t0.Add(time.Minute))
	require.Len(t, snap.Records, 1)
	r := snap.Records[0]
	assert.Equal(t, -50, r.RSSI)
	assert.Equal(t, "Foo", r.Name)
	assert.Equal(t, radio.MediumBoth, r.Sources)
	assert.Equal(t, 2, r.Sightings)
}

func TestNameIsImmutableOnceSet(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100})
	a.Ingest(obs("01:02:03:04:05:06", radio.MediumBLE, -70, ""))
	a.Ingest(obs("01:02:03:04:05:06", radio.MediumBLE, -80, "First"))
	a.Ingest(obs("01:02:03:04:05:06", radio.MediumBLE, -40, "Second"))

	snap := a.Finish(t0)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "First", snap.Records[0].Name)
	assert.Equal(t, -40, snap.Records[0].RSSI)
}

func TestFloorAndMediumFiltering(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumWiFi, RSSIFloor: -70})
	a.Ingest(obs("01:02:03:04:05:06", radio.MediumWiFi, -71, "weak"))
	a.Ingest(obs("01:02:03:04:05:07", radio.MediumBLE, -30, "ble"))
	a.Ingest(obs("01:02:03:04:05:08", radio.MediumWiFi, -70, "edge"))

	snap := a.Finish(t0)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "edge", snap.Records[0].Name)
	assert.Equal(t, 1, snap.Stats.BelowFloor)
	assert.Equal(t, 1, snap.Stats.WrongMedium)
	assert.Equal(t, 1, snap.Stats.Accepted)
}

func TestWiFiMetaCapturedOnce(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumWiFi, RSSIFloor: -100})
	first := obs("01:02:03:04:05:06", radio.MediumWiFi, -60, "ap")
	first.WiFi = &radio.WiFiMeta{Channel: 6, Auth: radio.AuthWPA2, PairwiseCipher: "CCMP"}
	second := obs("01:02:03:04:05:06", radio.MediumWiFi, -50, "ap")
	second.WiFi = &radio.WiFiMeta{Channel: 11, Auth: radio.AuthOpen}

	a.IngestBatch([]radio.Observation{first, second})
	// the caller's struct must not alias the record
	first.WiFi.Channel = 1

	snap := a.Finish(t0)
	require.Len(t, snap.Records, 1)
	want := &radio.WiFiMeta{Channel: 6, Auth: radio.AuthWPA2, PairwiseCipher: "CCMP"}
	if diff := cmp.Diff(want, snap.Records[0].WiFi); diff != "" {
		t.Errorf("wifi meta mismatch (-want +got):\n%s", diff)
	}
}

func payloadObs(i int) radio.Observation {
	o := obs(fmt.Sprintf("10:00:00:00:00:%02X", i), radio.MediumBLE, -60, "")
	o.Payload = radio.NewPayload(bytes.Repeat([]byte{byte(i)}, config.MaxPayloadLen))
	return o
}

func TestPayloadDeviceBudget(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100, CapturePayloads: true})
	for i := 0; i < 50; i++ {
		require.True(t, a.Ingest(payloadObs(i)))
	}
	extra := payloadObs(50)
	extra.Name = "late"
	extra.RSSI = -20
	a.Ingest(extra)

	snap := a.Finish(t0)
	assert.Equal(t, 50, snap.Stats.PayloadDevices)
	assert.Equal(t, 50*64, snap.Stats.PayloadBytes)
	assert.Equal(t, 1, snap.Stats.PayloadsDenied)

	r, ok := snap.Lookup(extra.Address)
	require.True(t, ok)
	assert.False(t, r.HasPayload())
	assert.Equal(t, "late", r.Name)
	assert.Equal(t, -20, r.RSSI)

	for i := 0; i < 50; i++ {
		r, ok := snap.Lookup(payloadObs(i).Address)
		require.True(t, ok)
		assert.True(t, r.HasPayload(), "device %d", i)
	}
}

func TestPayloadCapturedOnlyOnce(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100, CapturePayloads: true})
	first := obs("01:02:03:04:05:06", radio.MediumBLE, -60, "")
	first.Payload = radio.NewPayload([]byte{0x02, 0x01, 0x06})
	second := first
	second.Payload = radio.NewPayload([]byte{0x03, 0xFF, 0x4C, 0x00})
	a.Ingest(first)
	a.Ingest(second)

	snap := a.Finish(t0)
	assert.Equal(t, 3, snap.Stats.PayloadBytes)
	els, ok := snap.Decode(first.Address)
	require.True(t, ok)
	require.Len(t, els, 1)
	assert.Equal(t, "LE General, No BR/EDR", els[0].Flags)
}

func TestPayloadIgnoredWhenDisabled(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100})
	a.Ingest(payloadObs(1))
	snap := a.Finish(t0)
	_, ok := snap.Decode(payloadObs(1).Address)
	assert.False(t, ok)
	assert.Zero(t, snap.Stats.PayloadDevices)
}

func TestDeviceCap(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100})
	for i := 0; i < config.BaselineMaxDevices+3; i++ {
		o := obs("00:00:00:00:00:00", radio.MediumBLE, -60, "")
		o.Address = radio.Address{0x20, 0, 0, 0, byte(i >> 8), byte(i)}
		a.Ingest(o)
	}
	// existing records keep merging
	o := obs("20:00:00:00:00:00", radio.MediumBLE, -10, "kept")
	a.Ingest(o)

	assert.Equal(t, config.BaselineMaxDevices, a.Count())
	snap := a.Finish(t0)
	assert.Equal(t, 3, snap.Stats.Dropped)
	assert.Equal(t, "kept", snap.Records[0].Name)
}

func TestSnapshotSortedAndStable(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBoth, RSSIFloor: -100})
	a.IngestBatch([]radio.Observation{
		obs("03:00:00:00:00:00", radio.MediumWiFi, -70, "c"),
		obs("01:00:00:00:00:00", radio.MediumBLE, -40, "a"),
		obs("02:00:00:00:00:00", radio.MediumBLE, -70, "b"),
	})
	snap := a.Finish(t0.Add(5 * time.Second))

	got := make([]string, len(snap.Records))
	for i, r := range snap.Records {
		got[i] = r.Name
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, t0, snap.Started)
	assert.Equal(t, t0.Add(5*time.Second), snap.Finished)
	assert.NotEqual(t, "", snap.ID.String())

	wifi, ble, both := snap.CountBySource()
	assert.Equal(t, [3]int{1, 2, 0}, [3]int{wifi, ble, both})
}

func TestFinishedAggregatorIgnoresInput(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100})
	a.Ingest(obs("01:00:00:00:00:00", radio.MediumBLE, -40, "a"))
	first := a.Finish(t0)
	a.Ingest(obs("02:00:00:00:00:00", radio.MediumBLE, -40, "b"))

	require.Len(t, first.Records, 1)
	assert.Zero(t, a.Count())
	assert.Empty(t, a.Finish(t0).Records)
}

func TestWriteCSV(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBoth, RSSIFloor: -100})
	ap := obs("AA:BB:CC:00:00:01", radio.MediumWiFi, -50, `Cafe "Guest"`)
	ap.WiFi = &radio.WiFiMeta{Channel: 11, Auth: radio.AuthWPA2}
	a.IngestBatch([]radio.Observation{ap, obs("AA:BB:CC:00:00:02", radio.MediumBLE, -60, "")})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, a.Finish(t0)))

	want := "MAC,Source,RSSI,Complete Local Name,Channel,Auth\n" +
		`AA:BB:CC:00:00:01,Wi-Fi,-50,"Cafe ""Guest""",11,WPA2` + "\n" +
		"AA:BB:CC:00:00:02,BLE,-60,UNKNOWN,,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVNilSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "MAC,Source,RSSI,Complete Local Name,Channel,Auth\n", buf.String())
}

func TestSnapshotRecordsCompare(t *testing.T) {
	a := newAgg(t, Config{Medium: radio.MediumBLE, RSSIFloor: -100})
	a.Ingest(obs("01:00:00:00:00:00", radio.MediumBLE, -40, "a"))
	snap := a.Finish(t0)

	want := []Record{{
		Address:   radio.MustParseAddress("01:00:00:00:00:00"),
		RSSI:      -40,
		Name:      "a",
		Sources:   radio.MediumBLE,
		FirstSeen: t0,
		LastSeen:  t0,
		Sightings: 1,
	}}
	opts := cmpopts.IgnoreUnexported(radio.Payload{})
	if diff := cmp.Diff(want, snap.Records, opts); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}
