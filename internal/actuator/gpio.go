package actuator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// GPIO drives a PWM buzzer pin and an indicator LED pin through periph.io.
type GPIO struct {
	buzzer   gpio.PinIO
	led      gpio.PinIO
	inverted bool // LED lit on low
}

// NewGPIO initializes the host and resolves GPIO<buzzerPin> and GPIO<ledPin>.
func NewGPIO(buzzerPin, ledPin int, ledInverted bool) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	buzzer, err := resolvePin(buzzerPin)
	if err != nil {
		return nil, err
	}
	led, err := resolvePin(ledPin)
	if err != nil {
		return nil, err
	}
	return newGPIO(buzzer, led, ledInverted)
}

func newGPIO(buzzer, led gpio.PinIO, ledInverted bool) (*GPIO, error) {
	g := &GPIO{buzzer: buzzer, led: led, inverted: ledInverted}
	if err := g.buzzer.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("buzzer pin %s: %w", buzzer.Name(), err)
	}
	if err := g.SetIndicator(false); err != nil {
		return nil, err
	}
	return g, nil
}

func resolvePin(pin int) (gpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin %d (%s) not found in hardware", pin, name)
	}
	return p, nil
}

func (g *GPIO) SetAudio(on bool, tone Tone) error {
	if !on || tone.Duty == 0 {
		return g.buzzer.Out(gpio.Low)
	}
	duty := gpio.Duty(int64(tone.Duty) * int64(gpio.DutyMax) / 255)
	return g.buzzer.PWM(duty, physic.Frequency(tone.Frequency)*physic.Hertz)
}

func (g *GPIO) SetIndicator(on bool) error {
	level := gpio.Level(on != g.inverted)
	if err := g.led.Out(level); err != nil {
		return fmt.Errorf("led pin %s: %w", g.led.Name(), err)
	}
	return nil
}

// Close silences the buzzer and turns the LED off.
func (g *GPIO) Close() error {
	if err := g.SetAudio(false, Tone{}); err != nil {
		return err
	}
	return g.SetIndicator(false)
}
