// Package detect implements continuous watch-list detection: raw hits are
// debounced, presence is tracked against a staleness window, and alerts are
// rate-limited by a presence gap.
package detect

import (
	"sync/atomic"
	"time"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/guard"
	"oui-spy.klederson.com/internal/radio"
)

// Matcher decides whether an address is on the watch-list. ok is false when
// the decision could not be made in time.
type Matcher interface {
	Match(a radio.Address) (matched, ok bool)
}

// Result is the outcome of offering one observation to the engine.
type Result int

const (
	Ignored  Result = iota // not on the watch-list
	Accepted               // state updated
	Skipped                // lock contention, update dropped
)

// Alert is emitted at most once per presence gap while a target is present.
type Alert struct {
	Address radio.Address
	Medium  radio.Medium
	RSSI    int
	At      time.Time
}

// State is the engine's mutable state. Zero times mean "never".
type State struct {
	Running     bool
	LastSeen    time.Time
	LastHit     time.Time // last debounced qualifying hit
	LastAlert   time.Time
	BestRSSI    int
	HaveBest    bool
	LastRSSI    int
	LastAddress radio.Address
	LastMedium  radio.Medium
	Hits        int // debounced hits this session
	Alerts      int
	batchHit    bool
}

// Engine is the detection state machine.
type Engine struct {
	matcher Matcher
	state   *guard.Guard[State]
	skipped atomic.Uint64
}

// New returns an idle engine.
func New(m Matcher) *Engine {
	return &Engine{matcher: m, state: guard.New(State{})}
}

// Start arms the engine with fresh state.
func (e *Engine) Start() {
	e.reset(true)
}

// Stop disarms the engine.
func (e *Engine) Stop() {
	e.reset(false)
}

func (e *Engine) reset(running bool) {
	e.state.Set(State{Running: running})
	e.skipped.Store(0)
}

// Observe offers one streamed observation. It never waits longer than the
// callback lock timeout.
func (e *Engine) Observe(obs radio.Observation, now time.Time) Result {
	matched, ok := e.matcher.Match(obs.Address)
	if !ok {
		e.skipped.Add(1)
		return Skipped
	}
	if !matched {
		return Ignored
	}
	res := Ignored
	ok = e.state.With(config.CallbackLockTimeout, func(s *State) {
		if !s.Running {
			return
		}
		s.hit(&obs, now)
		res = Accepted
	})
	if !ok {
		e.skipped.Add(1)
		return Skipped
	}
	return res
}

// ObserveBatch offers the results of one full scan. Any match flags the next
// tick as present regardless of timestamps. It reports the number of accepted
// observations.
func (e *Engine) ObserveBatch(batch []radio.Observation, now time.Time) int {
	var hits []int
	for i := range batch {
		matched, ok := e.matcher.Match(batch[i].Address)
		if !ok {
			e.skipped.Add(1)
			continue
		}
		if matched {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return 0
	}

	n := 0
	ok := e.state.With(config.ForegroundLockTimeout, func(s *State) {
		if !s.Running {
			return
		}
		for _, i := range hits {
			s.hit(&batch[i], now)
			n++
		}
		s.batchHit = true
	})
	if !ok {
		e.skipped.Add(1)
	}
	return n
}

func (s *State) hit(obs *radio.Observation, now time.Time) {
	s.LastSeen = now
	s.LastRSSI = obs.RSSI
	s.LastAddress = obs.Address
	s.LastMedium = obs.Medium
	if !s.HaveBest || obs.RSSI > s.BestRSSI {
		s.BestRSSI = obs.RSSI
		s.HaveBest = true
	}
	if s.LastHit.IsZero() || now.Sub(s.LastHit) >= config.DebounceWindow {
		s.LastHit = now
		s.Hits++
	}
}

// Tick evaluates presence at now and emits an alert if the presence gap has
// elapsed. ok is false when no alert is due or the lock was busy.
func (e *Engine) Tick(now time.Time) (alert Alert, ok bool) {
	e.state.With(config.ForegroundLockTimeout, func(s *State) {
		if !s.Running {
			return
		}
		present := s.present(now)
		s.batchHit = false
		if !present {
			return
		}
		if !s.LastAlert.IsZero() && now.Sub(s.LastAlert) < config.PresenceGap {
			return
		}

		rssi := s.LastRSSI
		if s.HaveBest {
			rssi = s.BestRSSI
		}
		alert = Alert{Address: s.LastAddress, Medium: s.LastMedium, RSSI: rssi, At: now}
		s.HaveBest = false
		s.LastAlert = now
		s.Alerts++
		ok = true
	})
	return alert, ok
}

// Present reports whether the target counts as present at now without
// consuming any state.
func (e *Engine) Present(now time.Time) bool {
	var p bool
	e.state.With(config.ForegroundLockTimeout, func(s *State) { p = s.present(now) })
	return p
}

func (s *State) present(now time.Time) bool {
	if s.batchHit {
		return true
	}
	return !s.LastSeen.IsZero() && now.Sub(s.LastSeen) <= config.StaleWindow
}

// Snapshot returns a copy of the state.
func (e *Engine) Snapshot() (State, bool) {
	return e.state.Load(config.ForegroundLockTimeout)
}

// Skipped returns how many observations were dropped to lock contention
// since Start.
func (e *Engine) Skipped() uint64 {
	return e.skipped.Load()
}
