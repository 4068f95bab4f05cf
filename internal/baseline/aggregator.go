package baseline

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/guard"
	"oui-spy.klederson.com/internal/radio"
)

// Record is the merged view of one address within a survey.
type Record struct {
	Address   radio.Address
	RSSI      int // best seen
	Name      string
	Sources   radio.Medium
	WiFi      *radio.WiFiMeta
	Payload   radio.Payload
	FirstSeen time.Time
	LastSeen  time.Time
	Sightings int
}

// HasPayload reports whether a payload was captured for the record.
func (r *Record) HasPayload() bool { return r.Payload.Len() > 0 }

// Stats counts what the aggregator discarded or budgeted.
type Stats struct {
	Accepted       int // observations merged
	BelowFloor     int // observations under the RSSI floor
	WrongMedium    int // observations from an unselected medium
	Dropped        int // new addresses refused once the device cap was reached
	PayloadDevices int
	PayloadBytes   int
	PayloadsDenied int // payloads refused by the device or byte budget
}

type working struct {
	records map[radio.Address]*Record
	stats   Stats
	closed  bool
}

// Aggregator merges observations into per-address records for one survey.
type Aggregator struct {
	cfg     Config
	state   *guard.Guard[working]
	started time.Time
}

// NewAggregator creates an aggregator for cfg, which must be normalized.
func NewAggregator(cfg Config, started time.Time) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		state:   guard.New(working{records: make(map[radio.Address]*Record)}),
		started: started,
	}
}

// Config returns the survey configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// Ingest merges one streamed observation under the callback lock timeout.
// It reports false when the lock was busy and the observation was skipped.
func (a *Aggregator) Ingest(obs radio.Observation) bool {
	return a.state.With(config.CallbackLockTimeout, func(w *working) {
		a.merge(w, &obs)
	})
}

// IngestBatch merges a full scan result under one foreground lock acquisition.
func (a *Aggregator) IngestBatch(batch []radio.Observation) bool {
	return a.state.With(config.ForegroundLockTimeout, func(w *working) {
		for i := range batch {
			a.merge(w, &batch[i])
		}
	})
}

func (a *Aggregator) merge(w *working, obs *radio.Observation) {
	if w.closed {
		return
	}
	if !a.cfg.Medium.Has(obs.Medium) {
		w.stats.WrongMedium++
		return
	}
	if obs.RSSI < a.cfg.RSSIFloor {
		w.stats.BelowFloor++
		return
	}

	rec, ok := w.records[obs.Address]
	if !ok {
		if len(w.records) >= config.BaselineMaxDevices {
			w.stats.Dropped++
			return
		}
		rec = &Record{
			Address:   obs.Address,
			RSSI:      obs.RSSI,
			FirstSeen: obs.Seen,
		}
		w.records[obs.Address] = rec
	}
	w.stats.Accepted++

	if obs.RSSI > rec.RSSI {
		rec.RSSI = obs.RSSI
	}
	if rec.Name == "" && obs.Name != "" {
		rec.Name = obs.Name
	}
	rec.Sources |= obs.Medium
	rec.LastSeen = obs.Seen
	rec.Sightings++

	if obs.WiFi != nil && rec.WiFi == nil {
		meta := *obs.WiFi
		rec.WiFi = &meta
	}

	if a.cfg.CapturePayloads && obs.Medium == radio.MediumBLE && obs.HasPayload() && !rec.HasPayload() {
		n := obs.Payload.Len()
		if w.stats.PayloadDevices >= config.PayloadDeviceBudget || w.stats.PayloadBytes+n > config.PayloadByteBudget {
			w.stats.PayloadsDenied++
			return
		}
		rec.Payload = obs.Payload
		w.stats.PayloadDevices++
		w.stats.PayloadBytes += n
	}
}

// Count returns the number of tracked addresses, or -1 when the lock was busy.
func (a *Aggregator) Count() int {
	n := -1
	a.state.With(config.ForegroundLockTimeout, func(w *working) { n = len(w.records) })
	return n
}

// Finish converts the working map into an immutable snapshot and releases it.
// The aggregator accepts nothing afterwards. Finish waits for the lock
// without a deadline since a survey must always publish its result.
func (a *Aggregator) Finish(finished time.Time) *Snapshot {
	var (
		recs  map[radio.Address]*Record
		stats Stats
	)
	a.state.Must(func(w *working) {
		recs, stats = w.records, w.stats
		w.records = nil
		w.stats = Stats{}
		w.closed = true
	})

	list := make([]Record, 0, len(recs))
	for _, r := range recs {
		list = append(list, *r)
	}
	sortRecords(list)

	return &Snapshot{
		ID:       uuid.New(),
		Config:   a.cfg,
		Started:  a.started,
		Finished: finished,
		Records:  list,
		Stats:    stats,
	}
}

// sortRecords orders strongest RSSI first, then by address.
func sortRecords(list []Record) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].RSSI != list[j].RSSI {
			return list[i].RSSI > list[j].RSSI
		}
		return string(list[i].Address[:]) < string(list[j].Address[:])
	})
}
