package actuator

import (
	"log/slog"
	"time"

	"oui-spy.klederson.com/internal/clock"
	"oui-spy.klederson.com/internal/config"
)

// Beeper plays timed patterns on an Actuator. The indicator mirrors the
// buzzer. Actuator errors are logged, never returned: feedback is best effort.
type Beeper struct {
	act  Actuator
	clk  clock.Clock
	tone Tone
	log  *slog.Logger
}

// NewBeeper returns a Beeper playing tone on a.
func NewBeeper(a Actuator, clk clock.Clock, tone Tone, log *slog.Logger) *Beeper {
	return &Beeper{act: a, clk: clk, tone: tone, log: log}
}

// With returns a Beeper that plays on a instead, keeping clock, tone and logger.
func (b *Beeper) With(a Actuator) *Beeper {
	return &Beeper{act: a, clk: b.clk, tone: b.tone, log: b.log}
}

// Set switches audio and indicator together.
func (b *Beeper) Set(on bool) {
	if err := b.act.SetAudio(on, b.tone); err != nil {
		b.log.Warn("audio actuator failed", "on", on, "error", err)
	}
	if err := b.act.SetIndicator(on); err != nil {
		b.log.Warn("indicator actuator failed", "on", on, "error", err)
	}
}

// Pattern plays count pulses of length on separated by off.
func (b *Beeper) Pattern(count int, on, off time.Duration) {
	for i := 0; i < count; i++ {
		b.Set(true)
		b.clk.Sleep(on)
		b.Set(false)
		if i+1 < count {
			b.clk.Sleep(off)
		}
	}
}

// Beep plays count standard beeps.
func (b *Beeper) Beep(count int) {
	b.Pattern(count, config.BeepDuration, config.BeepPause)
}

func (b *Beeper) Startup()      { b.Beep(config.StartupBeeps) }
func (b *Beeper) Alert()        { b.Beep(config.AlertBeeps) }
func (b *Beeper) BaselineDone() { b.Beep(config.BaselineBeeps) }

// Acquired plays the short fox-hunt acquisition signal.
func (b *Beeper) Acquired() {
	b.Pattern(config.FoxAcquiredPulses, config.FoxAcquiredOn, config.FoxAcquiredOff)
}
