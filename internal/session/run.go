package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oui-spy.klederson.com/internal/actuator"
	"oui-spy.klederson.com/internal/baseline"
	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/radio"
)

// run is one active session.
type run struct {
	kind    Kind
	medium  radio.Medium
	stealth bool
	started time.Time
	beeper  *actuator.Beeper

	cancel context.CancelFunc
	done   chan struct{}

	failOnce sync.Once
	err      error
}

// fail records the first scan failure and cancels the session.
func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.err = err
		r.cancel()
	})
}

// StartDetection arms continuous detection on medium. With stealth set the
// buzzer stays silent and only the indicator signals.
func (c *Coordinator) StartDetection(medium radio.Medium, stealth bool) error {
	arm := func() {
		c.detect.Start()
		c.mode.Store(int32(Detecting))
	}
	return c.start(KindDetect, medium, stealth, arm, c.detectLoop)
}

// StartFoxHunt arms proximity homing on the BLE radio.
func (c *Coordinator) StartFoxHunt(stealth bool) error {
	arm := func() {
		c.fox.Start()
		c.mode.Store(int32(FoxHunting))
	}
	return c.start(KindFoxHunt, radio.MediumBLE, stealth, arm, c.foxLoop)
}

// StartBaseline begins a timed survey. Duration and floor are clamped into
// range; the result replaces the previous snapshot when the survey ends.
func (c *Coordinator) StartBaseline(cfg baseline.Config) error {
	cfg, err := cfg.Normalize()
	if err != nil {
		return err
	}
	var agg *baseline.Aggregator
	arm := func() {
		agg = baseline.NewAggregator(cfg, c.clk.Now())
		c.agg.Store(agg)
		c.baselineRunning.Store(true)
	}
	return c.start(KindBaseline, cfg.Medium, false, arm, func(ctx context.Context, r *run) {
		c.baselineLoop(ctx, r, agg)
	})
}

// start reserves the session slot and arms the engine for kind under mu,
// then brings up the BLE stream with mu released and runs body on its own
// goroutine.
func (c *Coordinator) start(kind Kind, medium radio.Medium, stealth bool, arm func(), body func(context.Context, *run)) error {
	c.mu.Lock()
	if c.active != nil {
		busy := c.active.kind
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, busy)
	}
	if !c.radio.Supports(medium) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", radio.ErrUnavailable, medium)
	}
	if kind != KindBaseline {
		n := c.filters.Len()
		if n < 0 {
			c.mu.Unlock()
			return fmt.Errorf("%w: filter store busy", ErrBusy)
		}
		if n == 0 {
			c.mu.Unlock()
			return ErrNoFilters
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		kind:    kind,
		medium:  medium,
		stealth: stealth,
		started: c.clk.Now(),
		beeper:  c.beeper,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if stealth {
		r.beeper = c.beeper.With(actuator.Stealth(c.act))
	}
	c.active = r
	arm()
	c.mu.Unlock()

	if medium.Has(radio.MediumBLE) {
		if err := c.radio.BLE.Start(c.onObservation); err != nil {
			cancel()
			c.resetEngines(kind)
			err = fmt.Errorf("%w: ble: %v", radio.ErrScanFailed, err)
			c.mu.Lock()
			c.active = nil
			c.lastFailure = err
			c.mu.Unlock()
			close(r.done)
			c.log.Error("session failed to start", "session", string(kind), "error", err)
			c.emit(Event{Kind: EventSessionFailed, Session: kind, At: r.started, Err: err})
			return err
		}
	}

	c.mu.Lock()
	c.lastFailure = nil
	c.mu.Unlock()
	c.log.Info("session started", "session", string(kind), "medium", medium.String(), "stealth", stealth)
	c.emit(Event{Kind: EventSessionStarted, Session: kind, At: r.started})

	go func() {
		defer close(r.done)
		body(ctx, r)
		c.finish(r)
	}()
	return nil
}

// Stop cancels the active session and waits for it to wind down. A
// baseline stopped early still publishes what it gathered.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	r := c.active
	c.mu.Unlock()
	if r == nil {
		return ErrNotRunning
	}
	r.cancel()
	<-r.done
	return nil
}

// Wait blocks until the active session, if any, has ended.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	r := c.active
	c.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

func (c *Coordinator) resetEngines(kind Kind) {
	switch kind {
	case KindDetect:
		c.mode.Store(int32(Stopped))
		c.detect.Stop()
	case KindFoxHunt:
		c.mode.Store(int32(Stopped))
		c.fox.Stop()
	case KindBaseline:
		c.baselineRunning.Store(false)
		c.agg.Store(nil)
	}
}

// finish releases everything a session held and publishes the outcome.
func (c *Coordinator) finish(r *run) {
	if r.medium.Has(radio.MediumBLE) {
		if err := c.radio.BLE.Stop(); err != nil && r.err == nil {
			r.err = fmt.Errorf("%w: ble stop: %v", radio.ErrScanFailed, err)
		}
	}
	r.beeper.Set(false)
	c.resetEngines(r.kind)

	now := c.clk.Now()
	c.mu.Lock()
	c.active = nil
	if r.err != nil {
		c.lastFailure = r.err
	}
	c.mu.Unlock()

	if r.err != nil {
		c.log.Error("session aborted", "session", string(r.kind), "error", r.err)
		c.emit(Event{Kind: EventSessionFailed, Session: r.kind, At: now, Err: r.err})
		return
	}
	c.log.Info("session stopped", "session", string(r.kind), "ran", now.Sub(r.started).String())
	c.emit(Event{Kind: EventSessionStopped, Session: r.kind, At: now})
}

// pollWiFi runs full scans back to back until ctx ends, handing each batch
// to sink. A scan error fails the session.
func (c *Coordinator) pollWiFi(ctx context.Context, r *run, sink func([]radio.Observation)) {
	for {
		batch, err := c.radio.WiFi.Scan(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.fail(fmt.Errorf("%w: wifi: %v", radio.ErrScanFailed, err))
			return
		}
		now := c.clk.Now()
		for i := range batch {
			if batch[i].Seen.IsZero() {
				batch[i].Seen = now
			}
		}
		sink(batch)

		select {
		case <-ctx.Done():
			return
		case <-c.clk.After(c.scanPause):
		}
	}
}

func (c *Coordinator) detectLoop(ctx context.Context, r *run) {
	var wg sync.WaitGroup
	defer wg.Wait()

	if r.medium.Has(radio.MediumWiFi) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.pollWiFi(ctx, r, func(batch []radio.Observation) {
				c.detect.ObserveBatch(batch, c.clk.Now())
			})
		}()
	}

	ticker := c.clk.NewTicker(config.DetectTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			alert, ok := c.detect.Tick(now)
			if !ok {
				continue
			}
			c.log.Info("target detected", "address", alert.Address.String(), "rssi", alert.RSSI, "medium", alert.Medium.String())
			c.emit(Event{Kind: EventAlert, Session: KindDetect, At: now, Alert: alert})
			r.beeper.Alert()
		}
	}
}

func (c *Coordinator) foxLoop(ctx context.Context, r *run) {
	ticker := c.clk.NewTicker(config.FoxTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			cmd, ok := c.fox.Tick(now)
			if !ok {
				continue
			}
			if cmd.Acquired || cmd.Lost {
				st, _ := c.fox.Snapshot()
				if cmd.Acquired {
					c.log.Info("target acquired", "address", st.Target.String(), "rssi", st.RSSI)
					c.emit(Event{Kind: EventAcquired, Session: KindFoxHunt, At: now, Target: st.Target})
					r.beeper.Acquired()
				}
				if cmd.Lost {
					c.log.Info("target lost", "address", st.Target.String())
					c.emit(Event{Kind: EventLost, Session: KindFoxHunt, At: now, Target: st.Target})
				}
			}
			if cmd.Changed {
				r.beeper.Set(cmd.Audio)
			}
		}
	}
}

func (c *Coordinator) baselineLoop(ctx context.Context, r *run, agg *baseline.Aggregator) {
	cfg := agg.Config()
	scanCtx, stopScans := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if cfg.Medium.Has(radio.MediumWiFi) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.pollWiFi(scanCtx, r, func(batch []radio.Observation) {
				if !agg.IngestBatch(batch) {
					c.noteContention(KindBaseline)
				}
			})
		}()
	}

	select {
	case <-ctx.Done():
	case <-c.clk.After(cfg.Duration):
	}
	stopScans()
	wg.Wait()
	if r.err != nil {
		return
	}

	c.baselineRunning.Store(false)
	snap := agg.Finish(c.clk.Now())
	c.results.Set(snap)

	wifi, ble, both := snap.CountBySource()
	c.log.Info("baseline complete",
		"id", snap.ID.String(),
		"devices", len(snap.Records),
		"wifi", wifi, "ble", ble, "both", both,
		"dropped", snap.Stats.Dropped,
		"payloads", snap.Stats.PayloadDevices)
	c.emit(Event{Kind: EventBaselineDone, Session: KindBaseline, At: snap.Finished, Snapshot: snap})
	r.beeper.BaselineDone()
}
