package baseline

import (
	"time"

	"github.com/google/uuid"

	"oui-spy.klederson.com/internal/adv"
	"oui-spy.klederson.com/internal/radio"
)

// Snapshot is the immutable result of a finished survey. Records are sorted
// strongest first.
type Snapshot struct {
	ID       uuid.UUID
	Config   Config
	Started  time.Time
	Finished time.Time
	Records  []Record
	Stats    Stats
}

// Lookup returns the record for addr.
func (s *Snapshot) Lookup(addr radio.Address) (Record, bool) {
	for _, r := range s.Records {
		if r.Address == addr {
			return r, true
		}
	}
	return Record{}, false
}

// Decode runs the payload decoder on the captured payload of addr. ok is
// false when the address is absent or carries no payload.
func (s *Snapshot) Decode(addr radio.Address) (elements []adv.Element, ok bool) {
	r, found := s.Lookup(addr)
	if !found || !r.HasPayload() {
		return nil, false
	}
	return adv.Decode(r.Payload.Bytes()), true
}

// CountBySource breaks the records down by the media they were seen on.
func (s *Snapshot) CountBySource() (wifi, ble, both int) {
	for _, r := range s.Records {
		switch r.Sources {
		case radio.MediumWiFi:
			wifi++
		case radio.MediumBLE:
			ble++
		case radio.MediumBoth:
			both++
		}
	}
	return
}
