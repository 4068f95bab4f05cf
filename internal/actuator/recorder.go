package actuator

import (
	"sync"
	"time"

	"oui-spy.klederson.com/internal/clock"
)

// Output names the actuator channel of an Event.
type Output string

const (
	OutputAudio     Output = "audio"
	OutputIndicator Output = "indicator"
)

// Event is one recorded actuator call.
type Event struct {
	At     time.Time
	Output Output
	On     bool
	Tone   Tone
}

// Recorder keeps every call with a timestamp from its clock.
type Recorder struct {
	mu     sync.Mutex
	clk    clock.Clock
	events []Event
}

// NewRecorder returns an empty Recorder timestamped by clk.
func NewRecorder(clk clock.Clock) *Recorder {
	return &Recorder{clk: clk}
}

func (r *Recorder) SetAudio(on bool, tone Tone) error {
	r.add(Event{Output: OutputAudio, On: on, Tone: tone})
	return nil
}

func (r *Recorder) SetIndicator(on bool) error {
	r.add(Event{Output: OutputIndicator, On: on})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) add(e Event) {
	e.At = r.clk.Now()
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Pulses returns the number of audio rising edges that carried sound.
func (r *Recorder) Pulses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	on := false
	for _, e := range r.events {
		if e.Output != OutputAudio {
			continue
		}
		if e.On && !on {
			n++
		}
		on = e.On
	}
	return n
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
