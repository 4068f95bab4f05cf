package session

import (
	"time"

	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/detect"
	"oui-spy.klederson.com/internal/radio"
)

// EventKind identifies an Event.
type EventKind int

const (
	EventSessionStarted EventKind = iota
	EventSessionStopped
	EventSessionFailed
	EventAlert
	EventAcquired
	EventLost
	EventBaselineDone
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session-started"
	case EventSessionStopped:
		return "session-stopped"
	case EventSessionFailed:
		return "session-failed"
	case EventAlert:
		return "alert"
	case EventAcquired:
		return "acquired"
	case EventLost:
		return "lost"
	case EventBaselineDone:
		return "baseline-done"
	}
	return "unknown"
}

// Event is published to the reporting layer on every externally visible
// transition.
type Event struct {
	Kind     EventKind
	Session  Kind
	At       time.Time
	Alert    detect.Alert       // EventAlert
	Target   radio.Address      // EventAcquired, EventLost
	Snapshot *baseline.Snapshot // EventBaselineDone
	Err      error              // EventSessionFailed
}

const eventBuffer = 64

// emit never blocks; a reporting layer that stops reading loses events.
func (c *Coordinator) emit(e Event) {
	select {
	case c.events <- e:
	default:
		c.log.Debug("event dropped, reader not keeping up", "event", e.Kind.String())
	}
}
