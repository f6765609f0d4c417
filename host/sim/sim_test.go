package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"picoblink/blink"
	"picoblink/core"
)

type outputLine struct {
	at   core.Instant
	line string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBoard(t *testing.T, sc *Scenario, clk clock.Clock) (*Board, *[]outputLine) {
	t.Helper()
	var lines []outputLine
	b, err := NewBoard(sc, func(at core.Instant, line string) {
		lines = append(lines, outputLine{at, line})
	}, clk, quietLogger())
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}
	t.Cleanup(func() {
		core.SetDebugWriter(func(string) {})
		core.SetHaltHandler(nil)
		core.ResetHalt()
	})
	return b, &lines
}

func mustResolve(t *testing.T, cfg *Config) *Scenario {
	t.Helper()
	sc, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return sc
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata/button.toml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	sc := mustResolve(t, cfg)

	if sc.Blink.Variant != blink.VariantButton || sc.Blink.ButtonEdge != core.EdgeBoth {
		t.Errorf("Unexpected blink config: %+v", sc.Blink)
	}
	if sc.Duration != core.Seconds(5) || sc.Step != core.Millis(10) {
		t.Errorf("Expected 5s duration and 10ms step, got %d and %d", sc.Duration, sc.Step)
	}
	if len(sc.Edges) != 4 {
		t.Fatalf("Expected 4 edges, got %d", len(sc.Edges))
	}
	if sc.Edges[1].At != core.Instant(2500600) || !sc.Edges[1].Level {
		t.Errorf("Unexpected second edge: %+v", sc.Edges[1])
	}
}

func TestResolveDefaults(t *testing.T) {
	sc := mustResolve(t, DefaultConfig())
	if sc.Blink.Period != core.OneSecondTicks {
		t.Errorf("Expected 1s period, got %d", sc.Blink.Period)
	}
	if sc.Blink.OnMiss != blink.MissHalt || sc.Blink.ButtonEdge != core.EdgeFalling {
		t.Errorf("Unexpected defaults: %+v", sc.Blink)
	}
	if sc.Duration != ToTicks(DefaultDuration) || sc.Step != ToTicks(DefaultStep) {
		t.Errorf("Unexpected duration/step: %d/%d", sc.Duration, sc.Step)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		err  error
	}{
		{"variant", `variant = "strobe"`, blink.ErrUnknownVariant},
		{"policy", `on_miss = "retry"`, blink.ErrUnknownPolicy},
		{"edge name", `button_edge = "sideways"`, ErrUnknownEdge},
		{"negative", `period = "-1s"`, ErrNegativeDuration},
		{"zero period", `period = "0s"`, blink.ErrZeroPeriod},
		{"level", "[[edge]]\nat = \"1s\"\nlevel = 2", ErrBadLevel},
		{"no button", "variant = \"led\"\n[[edge]]\nat = \"1s\"\nlevel = 0", ErrNoButton},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(test.toml))
			if err != nil {
				t.Fatalf("ParseConfig failed: %v", err)
			}
			_, err = cfg.Resolve()
			if !errors.Is(err, test.err) {
				t.Errorf("Expected %v, got %v", test.err, err)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	cfg, err := LoadConfig("testdata/button.toml")
	if err != nil {
		t.Fatal(err)
	}
	b, lines := newTestBoard(t, mustResolve(t, cfg), nil)

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := *lines
	if len(out) < 2 || out[0].line != "init" || out[1].line != "idle" {
		t.Fatalf("Expected init then idle, got %v", out)
	}

	var toggles, presses int
	var levels []string
	var firstPress core.Instant
	for _, l := range out {
		switch l.line {
		case "led on", "led off":
			toggles++
		case "Button pressed":
			if presses == 0 {
				firstPress = l.at
			}
			presses++
		case "level=0", "level=1":
			levels = append(levels, l.line)
		}
	}

	// Toggles at 0s..5s inclusive
	if toggles != 6 {
		t.Errorf("Expected 6 toggles, got %d", toggles)
	}
	if presses != 4 {
		t.Errorf("Expected 4 button runs, got %d", presses)
	}
	if firstPress != core.Instant(2500000) {
		t.Errorf("Expected first press at 2500000, got %d", firstPress)
	}
	expected := []string{"level=0", "level=1", "level=0", "level=1"}
	if len(levels) != len(expected) {
		t.Fatalf("Expected levels %v, got %v", expected, levels)
	}
	for i := range expected {
		if levels[i] != expected[i] {
			t.Errorf("Level %d: expected %s, got %s", i, expected[i], levels[i])
		}
	}

	writes := b.GPIO.WritesTo(b.scenario.Blink.LEDPin)
	if len(writes) != 7 {
		t.Errorf("Expected 7 LED writes, got %d", len(writes))
	}
}

func TestRunCancelled(t *testing.T) {
	b, _ := newTestBoard(t, mustResolve(t, DefaultConfig()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if b.Now() != core.Instant(ToTicks(DefaultStep)) {
		t.Errorf("Expected one step before stopping, now=%d", b.Now())
	}
}

func TestRunRealtime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = blink.VariantLED
	cfg.Duration = "50ms"
	cfg.Step = "10ms"
	cfg.Realtime = true

	mock := clock.NewMock()
	b, _ := newTestBoard(t, mustResolve(t, cfg), mock)

	done := make(chan error, 1)
	go func() {
		done <- b.Run(context.Background())
	}()

	for i := 0; i < 1000; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if b.Now() != core.Instant(core.Millis(50)) {
				t.Errorf("Expected to stop at 50ms, now=%d", b.Now())
			}
			return
		default:
			mock.Add(10 * time.Millisecond)
		}
	}
	t.Fatal("Realtime run did not finish")
}
