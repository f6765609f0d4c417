package core

import (
	"errors"
	"strings"
	"testing"
)

// captureDebug collects debug output for the duration of a test
func captureDebug(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	ResetDebug()
	ClearTimingRing()
	t.Cleanup(func() { SetDebugWriter(func(string) {}) })
	return &lines
}

func TestDebugAsyncFlushOrder(t *testing.T) {
	lines := captureDebug(t)

	DebugAsync("led on")
	DebugAsync("led off")
	if len(*lines) != 0 {
		t.Fatal("DebugAsync wrote synchronously")
	}

	if n := FlushDebug(); n != 2 {
		t.Errorf("Expected 2 flushed, got %d", n)
	}
	if len(*lines) != 2 || (*lines)[0] != "led on" || (*lines)[1] != "led off" {
		t.Errorf("Unexpected output: %v", *lines)
	}
}

func TestDebugAsyncDropsWhenFull(t *testing.T) {
	lines := captureDebug(t)

	for i := 0; i < DebugRingSize+3; i++ {
		DebugAsync("msg " + itoa(i))
	}
	if DebugDropped() != 3 {
		t.Errorf("Expected 3 dropped, got %d", DebugDropped())
	}

	FlushDebug()
	if len(*lines) != DebugRingSize {
		t.Fatalf("Expected %d lines, got %d", DebugRingSize, len(*lines))
	}
	if (*lines)[0] != "msg 0" {
		t.Errorf("Oldest message lost: %q", (*lines)[0])
	}
}

func TestTimingRingWraps(t *testing.T) {
	captureDebug(t)

	for i := 0; i < TimingRingSize+5; i++ {
		RecordTiming(EvtTaskRun, 1, uint32(i), 0, 0)
	}
	events := TimingEvents()
	if len(events) != TimingRingSize {
		t.Fatalf("Expected %d events, got %d", TimingRingSize, len(events))
	}
	if events[0].Clock != 5 {
		t.Errorf("Expected oldest clock 5, got %d", events[0].Clock)
	}
	if events[len(events)-1].Clock != TimingRingSize+4 {
		t.Errorf("Unexpected newest clock %d", events[len(events)-1].Clock)
	}
}

func TestHaltReportsAndCallsHandler(t *testing.T) {
	lines := captureDebug(t)

	var reason string
	SetHaltHandler(func(r string) { reason = r })
	defer SetHaltHandler(nil)
	defer ResetHalt()

	DebugAsync("led on")
	RecordTiming(EvtSpawn, 0, 10, 20, 0)
	Must(nil)
	if IsHalted() {
		t.Fatal("Must(nil) halted")
	}

	Must(errors.New("task already scheduled"))

	if reason != "task already scheduled" || HaltReason() != reason || !IsHalted() {
		t.Errorf("Halt state wrong: reason=%q halted=%v", reason, IsHalted())
	}

	out := strings.Join(*lines, "\n")
	if !strings.HasPrefix(out, "led on\nhalt: task already scheduled") {
		t.Errorf("Expected pending output then halt line, got:\n%s", out)
	}
	if !strings.Contains(out, "[TIMING] SPAWN task=0 clock=10 v1=20") {
		t.Errorf("Expected timing dump, got:\n%s", out)
	}
}

func TestItoa(t *testing.T) {
	tests := map[int]string{0: "0", 7: "7", 1000000: "1000000", -42: "-42"}
	for in, expected := range tests {
		if got := itoa(in); got != expected {
			t.Errorf("itoa(%d) = %q, expected %q", in, got, expected)
		}
	}
	if got := FormatInstant(Instant(18446744073709551615)); got != "18446744073709551615" {
		t.Errorf("FormatInstant max = %q", got)
	}
}
