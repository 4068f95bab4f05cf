// Package foxhunt turns the signal strength of a watch-listed target into a
// pulse cadence: the closer the target, the faster the ticking.
package foxhunt

import (
	"sync/atomic"
	"time"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/guard"
	"oui-spy.klederson.com/internal/radio"
)

// Matcher decides whether an address is on the watch-list.
type Matcher interface {
	Match(a radio.Address) (matched, ok bool)
}

// State is the engine's mutable state. Zero times mean "never".
type State struct {
	Running   bool
	Locked    bool
	RSSI      int
	LastSeen  time.Time
	Target    radio.Address
	Acquired  bool // first acquisition happened this session
	Beeping   bool
	BeepStart time.Time

	pendingAcquire bool
}

// Command tells the caller what to do with the actuator after a tick.
type Command struct {
	Audio      bool // desired audio state
	Changed    bool // Audio differs from the previous tick
	Continuous bool // saturation band
	Acquired   bool // play the one-time acquisition signal
	Lost       bool // the lock was dropped this tick
}

// Engine is the fox-hunt state machine.
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
func (e *Engine) Start() { e.reset(true) }

// Stop disarms the engine.
func (e *Engine) Stop() { e.reset(false) }

func (e *Engine) reset(running bool) {
	e.state.Set(State{Running: running})
	e.skipped.Store(0)
}

// Observe offers one BLE observation. It reports whether the state was
// updated; contention and non-matches both report false.
func (e *Engine) Observe(obs radio.Observation, now time.Time) bool {
	matched, ok := e.matcher.Match(obs.Address)
	if !ok {
		e.skipped.Add(1)
		return false
	}
	if !matched {
		return false
	}
	accepted := false
	ok = e.state.With(config.CallbackLockTimeout, func(s *State) {
		if !s.Running {
			return
		}
		if !s.Acquired {
			s.Acquired = true
			s.pendingAcquire = true
		}
		s.Locked = true
		s.RSSI = obs.RSSI
		s.LastSeen = now
		s.Target = obs.Address
		accepted = true
	})
	if !ok {
		e.skipped.Add(1)
	}
	return accepted
}

// Tick advances the pulse state machine to now. ok is false when the lock
// was busy; the caller keeps the previous audio state.
func (e *Engine) Tick(now time.Time) (cmd Command, ok bool) {
	ok = e.state.With(config.ForegroundLockTimeout, func(s *State) {
		cmd = s.tick(now)
	})
	return cmd, ok
}

func (s *State) tick(now time.Time) Command {
	var cmd Command
	if !s.Running {
		return cmd
	}
	was := s.Beeping
	if s.pendingAcquire {
		s.pendingAcquire = false
		cmd.Acquired = true
	}
	if s.Locked && now.Sub(s.LastSeen) > config.FoxLostTimeout {
		s.Locked = false
		cmd.Lost = true
	}

	switch {
	case !s.Locked:
		s.Beeping = false
	case s.RSSI >= config.FoxSaturationRSSI:
		if !s.Beeping {
			s.Beeping = true
			s.BeepStart = now
		}
		cmd.Continuous = true
	case s.Beeping:
		if now.Sub(s.BeepStart) >= config.FoxPulse {
			s.Beeping = false
		}
	default:
		if s.BeepStart.IsZero() || now.Sub(s.BeepStart) >= Interval(s.RSSI) {
			s.Beeping = true
			s.BeepStart = now
		}
	}

	cmd.Audio = s.Beeping
	cmd.Changed = s.Beeping != was
	return cmd
}

// Snapshot returns a copy of the state.
func (e *Engine) Snapshot() (State, bool) {
	return e.state.Load(config.ForegroundLockTimeout)
}

// Skipped returns how many observations were dropped to lock contention
// since Start.
func (e *Engine) Skipped() uint64 { return e.skipped.Load() }
