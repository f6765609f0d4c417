package blink

import "picoblink/core"

// Toggle is the periodic blink task. Its state is owned by the task and
// only touched inside Run.
type Toggle struct {
	cfg *Config
	led core.OutputLine // nil when the LED is not driven

	on     bool
	misses uint32
}

// NewToggle creates the blink task. led may be nil to track the state only.
func NewToggle(cfg *Config, led core.OutputLine) *Toggle {
	return &Toggle{cfg: cfg, led: led}
}

// Init drives the LED to its off level. Called once before the dispatcher starts.
func (t *Toggle) Init() error {
	if t.led == nil {
		return nil
	}
	return t.led.Set(t.level(false))
}

// level maps the logical LED state to the pin level
func (t *Toggle) level(on bool) bool {
	return on != t.cfg.ActiveLow
}

// Run flips the LED and re-arms itself one period from now
func (t *Toggle) Run(ctx *core.Context) {
	t.on = !t.on
	if t.on {
		core.DebugAsync("led on")
	} else {
		core.DebugAsync("led off")
	}

	if t.led != nil {
		if err := t.led.Set(t.level(t.on)); err != nil {
			core.Halt("led: " + err.Error())
			return
		}
	}

	if err := ctx.SpawnAfter(t.cfg.Period); err != nil {
		t.missed(ctx, err)
	}
}

func (t *Toggle) missed(ctx *core.Context, err error) {
	t.misses++
	switch t.cfg.OnMiss {
	case MissCoalesce:
		// An instance is already pending; the blink keeps going from there
		core.DebugAsync("spawn rejected: " + err.Error())
	default:
		core.Halt(ctx.Name() + ": " + err.Error())
	}
}

// On returns the logical LED state
func (t *Toggle) On() bool {
	return t.on
}

// Misses returns how many re-spawns were rejected
func (t *Toggle) Misses() uint32 {
	return t.misses
}
