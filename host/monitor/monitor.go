// Package monitor follows the firmware's diagnostic line stream, checks
// the blink sequence and exports counters.
package monitor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Kind classifies a diagnostic line
type Kind string

const (
	KindInit     Kind = "init"
	KindIdle     Kind = "idle"
	KindLEDOn    Kind = "led_on"
	KindLEDOff   Kind = "led_off"
	KindButton   Kind = "button"
	KindLevel    Kind = "level"
	KindHalt     Kind = "halt"
	KindTiming   Kind = "timing"
	KindRejected Kind = "spawn_rejected"
	KindOther    Kind = "other"
)

// Event is one classified line
type Event struct {
	Time  time.Time
	Kind  Kind
	Line  string
	Level int // sampled button level for KindLevel, -1 otherwise

	// Violation is set when the LED repeats a state instead of alternating
	Violation bool
}

// Classify maps a diagnostic line to its kind and, for level reports,
// the sampled level
func Classify(line string) (Kind, int) {
	switch {
	case line == "init":
		return KindInit, -1
	case line == "idle":
		return KindIdle, -1
	case line == "led on":
		return KindLEDOn, -1
	case line == "led off":
		return KindLEDOff, -1
	case line == "Button pressed":
		return KindButton, -1
	case line == "level=0":
		return KindLevel, 0
	case line == "level=1":
		return KindLevel, 1
	case strings.HasPrefix(line, "halt: "):
		return KindHalt, -1
	case strings.HasPrefix(line, "[TIMING]"):
		return KindTiming, -1
	case strings.HasPrefix(line, "spawn rejected"):
		return KindRejected, -1
	default:
		return KindOther, -1
	}
}

// Monitor tracks the LED sequence across lines
type Monitor struct {
	logger  *slog.Logger
	metrics *Metrics
	clock   clock.Clock

	lastLED    Kind
	violations int
}

// New creates a monitor. metrics may be nil.
func New(logger *slog.Logger, metrics *Metrics, clk clock.Clock) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{
		logger:  logger,
		metrics: metrics,
		clock:   clk,
	}
}

// Handle classifies one line and updates the sequence check
func (m *Monitor) Handle(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	kind, level := Classify(line)
	evt := Event{Time: m.clock.Now(), Kind: kind, Line: line, Level: level}

	switch kind {
	case KindInit:
		// Firmware restarted, the LED is off again
		m.lastLED = KindLEDOff
	case KindLEDOn, KindLEDOff:
		if m.lastLED == kind {
			evt.Violation = true
			m.violations++
			m.logger.Warn("LED did not alternate", "state", kind, "violations", m.violations)
		}
		m.lastLED = kind
	case KindHalt:
		m.logger.Error("Firmware halted", "reason", strings.TrimPrefix(line, "halt: "))
	case KindRejected:
		m.logger.Warn("Firmware rejected a spawn", "line", line)
	}

	if m.metrics != nil {
		m.metrics.observe(evt)
	}
	return evt
}

// Violations returns how many times the LED failed to alternate
func (m *Monitor) Violations() int {
	return m.violations
}

// Run reads lines from r until EOF or ctx is cancelled, calling out for
// each. Readers with a read timeout may return 0 bytes when idle; Run
// keeps polling them and checks ctx in between.
func (m *Monitor) Run(ctx context.Context, r io.Reader, out func(Event)) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		var partial strings.Builder
		for {
			chunk, err := br.ReadString('\n')
			partial.WriteString(chunk)
			if errors.Is(err, io.ErrNoProgress) {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if partial.Len() > 0 && (err == nil || errors.Is(err, io.EOF)) {
				select {
				case lines <- partial.String():
				case <-ctx.Done():
					return
				}
				partial.Reset()
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errs <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return ctx.Err()
				}
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				continue
			}
			evt := m.Handle(line)
			if out != nil {
				out(evt)
			}
		}
	}
}
