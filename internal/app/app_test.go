package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/clock"
	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/logger"
	"oui-spy.klederson.com/internal/radio"
	"oui-spy.klederson.com/internal/session"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newModel(t *testing.T, filters ...string) (AppModel, *session.Coordinator) {
	t.Helper()
	clk := clock.NewMock(t0)
	store := filter.NewStore(nil, logger.Discard())
	for _, f := range filters {
		_, err := store.Add(f)
		require.NoError(t, err)
	}
	demo := radio.NewDemo(1, nil)
	coord := session.New(session.Options{
		Radio:   radio.Radio{BLE: demo, WiFi: demo},
		Filters: store,
		Clock:   clk,
		Logger:  logger.Discard(),
	})
	t.Cleanup(func() { _ = coord.Stop() })
	return New(coord, Options{Source: "demo", Clock: clk}), coord
}

func press(m AppModel, keys ...string) AppModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(AppModel)
	}
	return m
}

func TestAddFilterThroughInput(t *testing.T) {
	m, coord := newModel(t)
	m = press(m, "n", "B4:1E:52X", "backspace", "enter")

	assert.False(t, m.input.Active)
	assert.Equal(t, "added B4:1E:52", m.notice.Text)
	entries, err := coord.Filters()
	require.NoError(t, err)
	assert.Equal(t, []filter.Entry{"B41E52"}, entries)
	assert.Equal(t, entries, m.filters)
}

func TestInvalidFilterKeepsEditorOpen(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, "n", "12345", "enter")

	assert.True(t, m.input.Active)
	assert.True(t, m.notice.Err)
	assert.Contains(t, m.notice.Text, "6 or 12 hex digits")

	m = press(m, "esc")
	assert.False(t, m.input.Active)
}

func TestDetectionNeedsFilters(t *testing.T) {
	m, coord := newModel(t)
	m = press(m, "d")

	assert.True(t, m.notice.Err)
	assert.Equal(t, session.ErrNoFilters.Error(), m.notice.Text)
	assert.Equal(t, session.Stopped, coord.Mode())
}

func TestStartAndStopDetection(t *testing.T) {
	m, coord := newModel(t, "B41E52")
	m = press(m, "m", "d")
	assert.Equal(t, radio.MediumBLE, m.medium)
	assert.Equal(t, session.Detecting, coord.Mode())

	m = press(m, "f")
	assert.Contains(t, m.notice.Text, session.ErrBusy.Error())

	press(m, "x")
	assert.Equal(t, session.Stopped, coord.Mode())
}

func TestTogglesCycle(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, radio.MediumWiFi, m.medium)
	m = press(m, "m", "m")
	assert.Equal(t, radio.MediumBoth, m.medium)
	m = press(m, "m")
	assert.Equal(t, radio.MediumWiFi, m.medium)

	m = press(m, "s")
	assert.True(t, m.stealth)
	m = press(m, "s")
	assert.False(t, m.stealth)
}

func TestBaselineResultsPromoteAndDetail(t *testing.T) {
	m, coord := newModel(t)
	snap := &baseline.Snapshot{
		Finished: t0,
		Records: []baseline.Record{
			{Address: radio.MustParseAddress("B4:1E:52:00:00:01"), RSSI: -40, Sources: radio.MediumBLE},
			{Address: radio.MustParseAddress("00:11:22:33:44:55"), RSSI: -70, Sources: radio.MediumWiFi},
		},
	}
	next, cmd := m.Update(EventMsg{Kind: session.EventBaselineDone, Session: session.KindBaseline, Snapshot: snap})
	m = next.(AppModel)
	require.NotNil(t, cmd)
	assert.Equal(t, viewBaseline, m.view)
	assert.Equal(t, "baseline done: 2 devices", m.notice.Text)

	m = press(m, "o", "down", "a")
	entries, err := coord.Filters()
	require.NoError(t, err)
	assert.Equal(t, []filter.Entry{"B41E52", "001122334455"}, entries)

	// the coordinator itself holds no survey, so decoding reports that
	m = press(m, "enter")
	assert.Equal(t, viewDetail, m.view)
	assert.True(t, errors.Is(m.detailErr, session.ErrNoResults))

	m = press(m, "esc", "tab")
	assert.Equal(t, viewFilters, m.view)
	assert.Zero(t, m.cursor)
}

func TestEventNotices(t *testing.T) {
	m, _ := newModel(t)
	addr := radio.MustParseAddress("AA:BB:CC:DD:EE:FF")

	m.handleEvent(session.Event{Kind: session.EventSessionFailed, Session: session.KindDetect, Err: radio.ErrScanFailed})
	assert.Equal(t, "detect aborted: scan failed", m.notice.Text)
	assert.True(t, m.notice.Err)

	m.handleEvent(session.Event{Kind: session.EventAcquired, Target: addr})
	assert.Equal(t, "target acquired AA:BB:CC:DD:EE:FF", m.notice.Text)
	assert.False(t, m.notice.Err)
}

func TestSampleFoxOnlyOnNewSightings(t *testing.T) {
	m, _ := newModel(t)
	m.status.Mode = session.FoxHunting
	m.status.Fox.Locked = true
	m.status.Fox.RSSI = -60
	m.status.Fox.LastSeen = t0

	m.sampleFox()
	m.sampleFox()
	m.status.Fox.RSSI = -50
	m.status.Fox.LastSeen = t0.Add(time.Second)
	m.sampleFox()

	assert.Equal(t, []int{-60, -50}, m.shared.history.Values())
}

func TestViewRenders(t *testing.T) {
	m, _ := newModel(t, "B41E52")
	assert.Equal(t, "Initializing OUI-Spy...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(AppModel)
	out := m.View()
	assert.Contains(t, out, "OUI-SPY")
	assert.Contains(t, out, "FILTERS [1/100]")
	assert.Len(t, strings.Split(out, "\n"), 40)

	m.status.Mode = session.FoxHunting
	assert.Contains(t, m.View(), "FOX HUNT")
}

func TestViewShowsLitOutputs(t *testing.T) {
	m, _ := newModel(t)
	st := &actuator.Status{}
	m.shared.outputs = st
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 30})
	m = next.(AppModel)
	assert.NotContains(t, m.View(), "BUZ")

	require.NoError(t, st.SetAudio(true, actuator.DefaultTone()))
	assert.Contains(t, m.View(), "BUZ")
}

func TestRSSIRing(t *testing.T) {
	r := NewRSSIRing(3)
	assert.Nil(t, r.Values())
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{1, 2}, r.Values())
	r.Push(3)
	r.Push(4)
	assert.Equal(t, []int{2, 3, 4}, r.Values())
	assert.Equal(t, 3, r.Len())
	r.Reset()
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Values())
}
