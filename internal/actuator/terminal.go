package actuator

import (
	"io"
	"sync"
)

// Terminal rings the terminal bell on every audio rising edge. The indicator
// has no terminal equivalent and is ignored.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
	on bool
}

// NewTerminal writes bells to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) SetAudio(on bool, _ Tone) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rising := on && !t.on
	t.on = on
	if rising {
		_, err := t.w.Write([]byte{'\a'})
		return err
	}
	return nil
}

func (t *Terminal) SetIndicator(bool) error { return nil }
func (t *Terminal) Close() error            { return nil }
