// Package session runs the three mutually exclusive operating modes and
// owns the shared state the radio callback and the reporting layer touch.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/adv"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/clock"
	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/detect"
	"oui-spy.klederson.com/internal/filter"
	"oui-spy.klederson.com/internal/foxhunt"
	"oui-spy.klederson.com/internal/guard"
	"oui-spy.klederson.com/internal/radio"
)

var (
	ErrBusy       = errors.New("another session is running")
	ErrNoFilters  = errors.New("no filters configured")
	ErrNotRunning = errors.New("no session running")
	ErrNoResults  = errors.New("no baseline results")
	ErrNoPayload  = errors.New("no payload captured for device")
)

// RunMode is the filter-driven mode. Baseline runs are tracked separately.
type RunMode int32

const (
	Stopped RunMode = iota
	Detecting
	FoxHunting
)

func (m RunMode) String() string {
	switch m {
	case Detecting:
		return "detecting"
	case FoxHunting:
		return "fox-hunting"
	}
	return "stopped"
}

// Kind names the session an event belongs to.
type Kind string

const (
	KindDetect   Kind = "detect"
	KindFoxHunt  Kind = "foxhunt"
	KindBaseline Kind = "baseline"
)

// Options wires a Coordinator to its collaborators.
type Options struct {
	Radio    radio.Radio
	Filters  *filter.Store
	Actuator actuator.Actuator
	Tone     actuator.Tone
	Clock    clock.Clock
	Logger   *slog.Logger
	// Pause between Wi-Fi scans; zero uses config.WiFiScanPause.
	WiFiScanPause time.Duration
}

// Coordinator enforces mutual exclusion between sessions and routes radio
// observations to whichever engine is active.
type Coordinator struct {
	radio     radio.Radio
	filters   *filter.Store
	act       actuator.Actuator
	beeper    *actuator.Beeper
	clk       clock.Clock
	log       *slog.Logger
	scanPause time.Duration

	detect *detect.Engine
	fox    *foxhunt.Engine

	// Read by the radio callback without taking mu.
	mode            atomic.Int32
	baselineRunning atomic.Bool
	agg             atomic.Pointer[baseline.Aggregator]

	results *guard.Guard[*baseline.Snapshot]
	events  chan Event

	contention rate.Sometimes

	mu          sync.Mutex
	active      *run
	lastFailure error
}

// New builds an idle coordinator.
func New(opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Actuator == nil {
		opts.Actuator = actuator.Nop{}
	}
	if opts.Tone == (actuator.Tone{}) {
		opts.Tone = actuator.DefaultTone()
	}
	if opts.WiFiScanPause <= 0 {
		opts.WiFiScanPause = config.WiFiScanPause
	}
	c := &Coordinator{
		radio:      opts.Radio,
		filters:    opts.Filters,
		act:        opts.Actuator,
		beeper:     actuator.NewBeeper(opts.Actuator, opts.Clock, opts.Tone, opts.Logger),
		clk:        opts.Clock,
		log:        opts.Logger,
		scanPause:  opts.WiFiScanPause,
		detect:     detect.New(opts.Filters),
		fox:        foxhunt.New(opts.Filters),
		results:    guard.New[*baseline.Snapshot](nil),
		events:     make(chan Event, eventBuffer),
		contention: rate.Sometimes{Interval: time.Second},
	}
	return c
}

// Events delivers session transitions, alerts and baseline results.
func (c *Coordinator) Events() <-chan Event { return c.events }

// Boot plays the startup signature.
func (c *Coordinator) Boot() {
	n := c.filters.Len()
	c.log.Info("engine ready", "filters", n, "ble", c.radio.BLE != nil, "wifi", c.radio.WiFi != nil)
	c.beeper.Startup()
}

// Beep plays a single test beep.
func (c *Coordinator) Beep() { c.beeper.Alert() }

// Mode returns the current filter-driven mode.
func (c *Coordinator) Mode() RunMode { return RunMode(c.mode.Load()) }

// Status is a read-only view for the reporting layer.
type Status struct {
	Mode            RunMode
	Baseline        bool
	Medium          radio.Medium
	Stealth         bool
	Since           time.Time
	BaselineConfig  baseline.Config
	BaselineDevices int
	Filters         int
	LastFailure     error
	Detect          detect.State
	Fox             foxhunt.State
}

// Status collects the current flags and engine state.
func (c *Coordinator) Status() Status {
	st := Status{
		Mode:     c.Mode(),
		Baseline: c.baselineRunning.Load(),
		Filters:  c.filters.Len(),
	}
	c.mu.Lock()
	if r := c.active; r != nil {
		st.Medium = r.medium
		st.Stealth = r.stealth
		st.Since = r.started
	}
	st.LastFailure = c.lastFailure
	c.mu.Unlock()

	switch st.Mode {
	case Detecting:
		st.Detect, _ = c.detect.Snapshot()
	case FoxHunting:
		st.Fox, _ = c.fox.Snapshot()
	}
	if agg := c.agg.Load(); agg != nil {
		st.BaselineConfig = agg.Config()
		st.BaselineDevices = agg.Count()
	}
	return st
}

// LastBaseline returns the latest survey result, nil if none has finished.
func (c *Coordinator) LastBaseline() *baseline.Snapshot {
	snap, _ := c.results.Load(config.ForegroundLockTimeout)
	return snap
}

// DecodePayload decodes the payload captured for addr in the latest survey.
func (c *Coordinator) DecodePayload(addr radio.Address) ([]adv.Element, error) {
	snap := c.LastBaseline()
	if snap == nil {
		return nil, ErrNoResults
	}
	els, ok := snap.Decode(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPayload, addr)
	}
	return els, nil
}

// Filters returns the watch-list.
func (c *Coordinator) Filters() ([]filter.Entry, error) { return c.filters.Entries() }

// AddFilter validates and stores one pattern.
func (c *Coordinator) AddFilter(raw string) (filter.Entry, error) {
	e, err := c.filters.Add(raw)
	if err != nil {
		return "", err
	}
	c.log.Info("filter added", "filter", e.Pretty())
	return e, nil
}

// ClearFilters empties the watch-list.
func (c *Coordinator) ClearFilters() error {
	if err := c.filters.Clear(); err != nil {
		return err
	}
	c.log.Info("filters cleared")
	return nil
}

// ReplaceFilters swaps the watch-list for the valid lines of text.
func (c *Coordinator) ReplaceFilters(text string) (filter.ReplaceResult, error) {
	res, err := c.filters.Replace(text)
	if err != nil {
		return res, err
	}
	c.log.Info("filters replaced", "stored", len(res.Stored), "rejected", len(res.Rejected))
	return res, nil
}

// Promote adds a baseline device to the watch-list, by OUI or full address.
func (c *Coordinator) Promote(addr radio.Address, full bool) (filter.Entry, error) {
	var (
		e   filter.Entry
		err error
	)
	if full {
		e, err = c.filters.PromoteAddress(addr)
	} else {
		e, err = c.filters.PromoteOUI(addr)
	}
	if err != nil {
		return "", err
	}
	c.log.Info("filter promoted", "filter", e.Pretty(), "from", addr.String())
	return e, nil
}

// onObservation is the radio callback. It never blocks beyond the callback
// lock timeout and never logs per observation.
func (c *Coordinator) onObservation(obs radio.Observation) {
	now := c.clk.Now()
	if obs.Seen.IsZero() {
		obs.Seen = now
	}
	switch RunMode(c.mode.Load()) {
	case Detecting:
		if c.detect.Observe(obs, now) == detect.Skipped {
			c.noteContention(KindDetect)
		}
	case FoxHunting:
		c.fox.Observe(obs, now)
	}
	if c.baselineRunning.Load() {
		if agg := c.agg.Load(); agg != nil && !agg.Ingest(obs) {
			c.noteContention(KindBaseline)
		}
	}
}

func (c *Coordinator) noteContention(k Kind) {
	c.contention.Do(func() {
		c.log.Debug("observation skipped, state busy", "session", string(k))
	})
}
