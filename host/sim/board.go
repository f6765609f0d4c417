package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"picoblink/blink"
	"picoblink/core"
)

// OutputFunc receives each diagnostic line with the simulated time it
// was written at
type OutputFunc func(at core.Instant, line string)

// Board is the firmware running on simulated hardware. The core
// diagnostic and halt hooks are process globals, so only one Board may
// run at a time.
type Board struct {
	Timer      *core.SimTimer
	GPIO       *core.SimGPIO
	Dispatcher *core.Dispatcher
	App        *blink.App

	scenario *Scenario
	clock    clock.Clock
	logger   *slog.Logger
	out      OutputFunc
}

// NewBoard builds the board and runs the firmware's setup. Nothing is
// dispatched until Run. clk paces realtime runs and may be nil.
func NewBoard(sc *Scenario, out OutputFunc, clk clock.Clock, logger *slog.Logger) (*Board, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = func(core.Instant, string) {}
	}

	b := &Board{
		Timer:    core.NewSimTimer(),
		scenario: sc,
		clock:    clk,
		logger:   logger,
		out:      out,
	}

	mono := core.NewMonotonic(b.Timer)
	b.GPIO = core.NewSimGPIO(mono.Now)
	b.Dispatcher = core.NewDispatcher(mono)
	b.Timer.SetAlarmHandler(b.Dispatcher.OnAlarm)

	core.ResetDebug()
	core.ResetHalt()
	core.ClearTimingRing()
	core.SetTimingEnabled(sc.Timing)
	core.SetDebugWriter(func(line string) {
		b.out(core.Instant(b.Timer.Ticks()), line)
	})
	core.SetHaltHandler(b.halt)
	core.SetGPIODriver(b.GPIO)

	app, err := blink.Setup(b.Dispatcher, b.GPIO, nil, sc.Blink)
	if err != nil {
		return nil, err
	}
	b.App = app
	return b, nil
}

// halt stands in for masking interrupts: no alarm fires after it
func (b *Board) halt(reason string) {
	b.Timer.ClearAlarm()
	b.logger.Error("Firmware halted", "reason", reason, "at", core.FormatInstant(core.Instant(b.Timer.Ticks())))
}

// Now returns the simulated time
func (b *Board) Now() core.Instant {
	return core.Instant(b.Timer.Ticks())
}

// Run starts the dispatcher and advances simulated time to the end of
// the scenario, applying the scripted edges on the way. In realtime mode
// each step waits for a tick of the board's clock.
func (b *Board) Run(ctx context.Context) error {
	sc := b.scenario
	b.Dispatcher.Start()
	core.DebugPrintln("idle")

	var tick <-chan time.Time
	if sc.Realtime {
		ticker := b.clock.Ticker(FromTicks(sc.Step))
		defer ticker.Stop()
		tick = ticker.C
	}

	end := core.Instant(sc.Duration)
	edges := sc.Edges
	for now := b.Now(); now < end; now = b.Now() {
		next := now.Add(sc.Step)
		if next > end {
			next = end
		}

		for len(edges) > 0 && edges[0].At <= next {
			b.step(edges[0].At)
			b.drive(edges[0].Level)
			edges = edges[1:]
		}
		b.step(next)

		if core.IsHalted() {
			return &core.HaltError{Reason: core.HaltReason()}
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}

	if sc.Timing {
		core.DumpTimingRing()
	}
	b.logger.Debug("Simulation finished", "runs", b.Dispatcher.Runs())
	return nil
}

// step advances simulated time and drains the diagnostic ring, as the
// firmware's idle loop would after each wake-up
func (b *Board) step(to core.Instant) {
	b.Timer.AdvanceTo(to)
	core.FlushDebug()
}

func (b *Board) drive(level bool) {
	if core.IsHalted() {
		return
	}
	pin := b.scenario.Blink.ButtonPin
	if err := b.GPIO.Drive(pin, level); err != nil {
		b.logger.Warn("Failed to drive button", "pin", pin, "error", err)
	}
	core.FlushDebug()
}
