package actuator

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Serial drives an external buzzer board over a serial line. Each state
// change is one text line: "A1 <freq> <duty>", "A0", "L1" or "L0".
type Serial struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewSerial opens path at baud, 8N1.
func NewSerial(path string, baud int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return NewSerialWriter(port), nil
}

// NewSerialWriter speaks the line protocol on w.
func NewSerialWriter(w io.WriteCloser) *Serial {
	return &Serial{w: w}
}

func (s *Serial) SetAudio(on bool, tone Tone) error {
	if on {
		return s.line(fmt.Sprintf("A1 %d %d\n", tone.Frequency, tone.Duty))
	}
	return s.line("A0\n")
}

func (s *Serial) SetIndicator(on bool) error {
	if on {
		return s.line("L1\n")
	}
	return s.line("L0\n")
}

func (s *Serial) line(l string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, l)
	return err
}

// Close silences the board and closes the port.
func (s *Serial) Close() error {
	_ = s.SetAudio(false, Tone{})
	_ = s.SetIndicator(false)
	return s.w.Close()
}
