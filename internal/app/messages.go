package app

import (
	"time"

	"oui-spy.klederson.com/internal/session"
)

// TickMsg triggers a frame update for animation and status polling.
type TickMsg time.Time

// EventMsg carries one coordinator event into the update loop.
type EventMsg session.Event
