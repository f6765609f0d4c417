// Package blink is the application: a periodic LED toggle and an optional
// button interrupt task, wired onto a core.Dispatcher.
package blink

import "picoblink/core"

// App holds the wired tasks of one firmware variant
type App struct {
	Config     *Config
	Dispatcher *core.Dispatcher

	Toggle     *Toggle
	ToggleTask core.TaskID

	Button     *Button
	ButtonTask core.TaskID
}

// Setup configures the lines, registers the tasks and spawns the first
// toggle. led overrides the LED backend; nil uses a GPIO pin line on
// cfg.LEDPin. The dispatcher is not started.
func Setup(d *core.Dispatcher, gpio core.GPIODriver, led core.OutputLine, cfg *Config) (*App, error) {
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	core.DebugPrintln("init")
	app := &App{Config: cfg, Dispatcher: d}

	if !cfg.DriveLED {
		led = nil
	} else if led == nil {
		line, err := core.NewPinLine(gpio, cfg.LEDPin)
		if err != nil {
			return nil, err
		}
		led = line
	}

	app.Toggle = NewToggle(cfg, led)
	if err := app.Toggle.Init(); err != nil {
		return nil, err
	}

	id, err := d.Register("toggle", TogglePriority, app.Toggle.Run)
	if err != nil {
		return nil, err
	}
	app.ToggleTask = id

	if cfg.Button {
		if err := app.setupButton(gpio); err != nil {
			return nil, err
		}
	}

	if err := d.SpawnNow(app.ToggleTask); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) setupButton(gpio core.GPIODriver) error {
	cfg := a.Config
	if err := gpio.ConfigureInputPullUp(cfg.ButtonPin); err != nil {
		return err
	}

	a.Button = NewButton(gpio, cfg.ButtonPin, cfg.Debounce)
	id, err := a.Dispatcher.Register("button", ButtonPriority, a.Button.Run)
	if err != nil {
		return err
	}
	a.ButtonTask = id

	if err := a.Dispatcher.Bind(core.VectorGPIOBank0, id); err != nil {
		return err
	}

	d := a.Dispatcher
	return gpio.SetEdgeInterrupt(cfg.ButtonPin, cfg.ButtonEdge, func(core.GPIOPin) {
		_ = d.Interrupt(core.VectorGPIOBank0)
	})
}
