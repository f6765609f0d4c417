// Package sim runs the blink firmware on a simulated board: a software
// timer, an in-memory GPIO bank and scripted button edges.
package sim

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"picoblink/blink"
	"picoblink/core"
)

// Config is a simulation scenario, loaded from TOML
type Config struct {
	Variant    string `toml:"variant"`
	Period     string `toml:"period"`
	Debounce   string `toml:"debounce"`
	OnMiss     string `toml:"on_miss"`
	ButtonEdge string `toml:"button_edge"`

	Duration string `toml:"duration"`
	Step     string `toml:"step"`
	Realtime bool   `toml:"realtime"`
	Timing   bool   `toml:"timing"`

	Edges []EdgeConfig `toml:"edge"`
}

// EdgeConfig drives the button line to Level at time At
type EdgeConfig struct {
	At    string `toml:"at"`
	Level int    `toml:"level"`
}

// Edge is a resolved button transition
type Edge struct {
	At    core.Instant
	Level bool
}

// Scenario is a Config with every value parsed and defaulted
type Scenario struct {
	Blink    *blink.Config
	Duration core.Duration
	Step     core.Duration
	Realtime bool
	Timing   bool
	Edges    []Edge
}

const (
	DefaultDuration = 10 * time.Second
	DefaultStep     = time.Millisecond
)

var (
	ErrNegativeDuration = errors.New("duration must not be negative")
	ErrUnknownEdge      = errors.New("unknown button edge")
	ErrBadLevel         = errors.New("edge level must be 0 or 1")
	ErrNoButton         = errors.New("edges need a variant with a button")
)

// DefaultConfig returns a scenario running the button variant for ten
// seconds with no scripted edges
func DefaultConfig() *Config {
	return &Config{
		Variant:  blink.VariantButton,
		Duration: DefaultDuration.String(),
		Step:     DefaultStep.String(),
	}
}

// LoadConfig reads a TOML scenario. Missing keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML scenario
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// parseDuration converts a Go duration string to timer ticks. Empty
// strings give def.
func parseDuration(s string, def core.Duration) (core.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, ErrNegativeDuration
	}
	return ToTicks(d), nil
}

// ToTicks converts a wall-clock duration to timer ticks
func ToTicks(d time.Duration) core.Duration {
	return core.Micros(uint64(d / time.Microsecond))
}

// FromTicks converts timer ticks to a wall-clock duration
func FromTicks(d core.Duration) time.Duration {
	return time.Duration(core.TicksToMicros(d)) * time.Microsecond
}

// ParseEdge converts an edge name
func ParseEdge(name string) (core.Edge, error) {
	switch name {
	case "", "falling":
		return core.EdgeFalling, nil
	case "rising":
		return core.EdgeRising, nil
	case "both":
		return core.EdgeBoth, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownEdge, name)
	}
}

// Resolve parses and validates the scenario
func (c *Config) Resolve() (*Scenario, error) {
	bc, err := blink.Preset(c.Variant)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", c.Variant, err)
	}

	if bc.Period, err = parseDuration(c.Period, bc.Period); err != nil {
		return nil, fmt.Errorf("period: %w", err)
	}
	if bc.Debounce, err = parseDuration(c.Debounce, 0); err != nil {
		return nil, fmt.Errorf("debounce: %w", err)
	}
	if bc.OnMiss, err = blink.ParseMissPolicy(c.OnMiss); err != nil {
		return nil, fmt.Errorf("on_miss %q: %w", c.OnMiss, err)
	}
	if bc.ButtonEdge, err = ParseEdge(c.ButtonEdge); err != nil {
		return nil, err
	}
	if err := bc.Validate(); err != nil {
		return nil, err
	}

	sc := &Scenario{
		Blink:    bc,
		Realtime: c.Realtime,
		Timing:   c.Timing,
	}
	if sc.Duration, err = parseDuration(c.Duration, ToTicks(DefaultDuration)); err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}
	if sc.Step, err = parseDuration(c.Step, ToTicks(DefaultStep)); err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	if sc.Step == 0 {
		sc.Step = ToTicks(DefaultStep)
	}

	if len(c.Edges) > 0 && !bc.Button {
		return nil, ErrNoButton
	}
	for i, e := range c.Edges {
		at, err := parseDuration(e.At, 0)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if e.Level != 0 && e.Level != 1 {
			return nil, fmt.Errorf("edge %d: %w", i, ErrBadLevel)
		}
		sc.Edges = append(sc.Edges, Edge{At: core.Instant(at), Level: e.Level == 1})
	}
	sort.SliceStable(sc.Edges, func(i, j int) bool {
		return sc.Edges[i].At < sc.Edges[j].At
	})

	return sc, nil
}
