// Package actuator drives the buzzer and indicator LED. Engines only ever
// talk to the Actuator interface.
package actuator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"oui-spy.klederson.com/internal/config"
)

// Tone is the buzzer drive: frequency in Hz and PWM duty out of 255.
type Tone struct {
	Frequency int
	Duty      uint8
}

// DefaultTone is the firmware buzzer tone.
func DefaultTone() Tone {
	return Tone{Frequency: config.BuzzerFrequency, Duty: config.BuzzerDuty}
}

// ConfiguredTone returns the tone from cfg, falling back to DefaultTone
// for unset fields.
func ConfiguredTone(cfg config.ActuatorConfig) Tone {
	t := DefaultTone()
	if cfg.Frequency > 0 {
		t.Frequency = cfg.Frequency
	}
	if cfg.Duty > 0 && cfg.Duty <= 255 {
		t.Duty = uint8(cfg.Duty)
	}
	return t
}

// Actuator is the output collaborator.
type Actuator interface {
	SetAudio(on bool, tone Tone) error
	SetIndicator(on bool) error
	Close() error
}

// Open builds the actuator selected by cfg.
func Open(cfg config.ActuatorConfig, log *slog.Logger) (Actuator, error) {
	switch cfg.Kind {
	case "", "none":
		return Nop{}, nil
	case "terminal":
		return NewTerminal(os.Stderr), nil
	case "gpio":
		a, err := NewGPIO(cfg.BuzzerPin, cfg.LEDPin, cfg.LEDInverted)
		if err != nil {
			return nil, err
		}
		log.Info("gpio actuator ready", "buzzer_pin", cfg.BuzzerPin, "led_pin", cfg.LEDPin)
		return a, nil
	case "serial":
		a, err := NewSerial(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			return nil, err
		}
		log.Info("serial actuator ready", "port", cfg.SerialPort, "baud", cfg.BaudRate)
		return a, nil
	}
	return nil, fmt.Errorf("unknown actuator kind %q", cfg.Kind)
}

// Nop discards everything.
type Nop struct{}

func (Nop) SetAudio(bool, Tone) error { return nil }
func (Nop) SetIndicator(bool) error   { return nil }
func (Nop) Close() error              { return nil }

type stealth struct {
	Actuator
}

// Stealth returns a wrapper that keeps the audio off while still passing
// indicator changes through.
func Stealth(a Actuator) Actuator {
	return stealth{a}
}

func (s stealth) SetAudio(_ bool, tone Tone) error {
	return s.Actuator.SetAudio(false, tone)
}

// Close leaves the wrapped actuator open; its owner closes it.
func (s stealth) Close() error { return nil }

type tee []Actuator

// Tee fans every call out to all of as and joins their errors.
func Tee(as ...Actuator) Actuator {
	return tee(as)
}

func (t tee) SetAudio(on bool, tone Tone) error {
	var errs []error
	for _, a := range t {
		errs = append(errs, a.SetAudio(on, tone))
	}
	return errors.Join(errs...)
}

func (t tee) SetIndicator(on bool) error {
	var errs []error
	for _, a := range t {
		errs = append(errs, a.SetIndicator(on))
	}
	return errors.Join(errs...)
}

func (t tee) Close() error {
	var errs []error
	for _, a := range t {
		errs = append(errs, a.Close())
	}
	return errors.Join(errs...)
}

// Status remembers the last audio and indicator state so a display can
// mirror the hardware.
type Status struct {
	audio     atomic.Bool
	indicator atomic.Bool
}

func (s *Status) SetAudio(on bool, _ Tone) error { s.audio.Store(on); return nil }
func (s *Status) SetIndicator(on bool) error     { s.indicator.Store(on); return nil }
func (s *Status) Close() error                   { return nil }

// State returns the last audio and indicator values.
func (s *Status) State() (audio, indicator bool) {
	return s.audio.Load(), s.indicator.Load()
}
