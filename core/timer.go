package core

// Timer frequency shared by every target. The RP2040 TIMER peripheral
// counts microseconds, and the simulator uses the same rate.
const (
	TimerFreq = 1000000 // 1MHz tick rate

	// Tick rate as a fraction of a second (1/1000000)
	TimerNum   = 1
	TimerDenom = 1000000

	OneSecondTicks = Duration(TimerFreq)
)

// Instant is a point on the monotonic clock, in timer ticks since boot
type Instant uint64

// Duration is an offset from an Instant, in timer ticks
type Duration uint64

// Add returns the instant d ticks after i
func (i Instant) Add(d Duration) Instant {
	return i + Instant(d)
}

// Sub returns the duration from j to i, or 0 if j is after i
func (i Instant) Sub(j Instant) Duration {
	if j > i {
		return 0
	}
	return Duration(i - j)
}

// Micros converts microseconds to timer ticks
func Micros(us uint64) Duration {
	return Duration(us * TimerFreq / 1000000)
}

// Millis converts milliseconds to timer ticks
func Millis(ms uint64) Duration {
	return Duration(ms * TimerFreq / 1000)
}

// Seconds converts seconds to timer ticks
func Seconds(s uint64) Duration {
	return Duration(s * TimerFreq)
}

// TicksToMicros converts timer ticks to microseconds
func TicksToMicros(d Duration) uint64 {
	return uint64(d) * 1000000 / TimerFreq
}

// HardwareTimer is a free-running tick counter with a single compare alarm.
// Targets wire the alarm interrupt to Dispatcher.OnAlarm.
type HardwareTimer interface {
	// Ticks reads the current counter value
	Ticks() uint64

	// SetAlarm raises the alarm interrupt at or after the given tick.
	// A tick already in the past fires essentially immediately.
	SetAlarm(at uint64)

	// ClearAlarm disarms the pending alarm, if any
	ClearAlarm()
}

// Monotonic adapts a HardwareTimer into a monotonic clock with one alarm
type Monotonic struct {
	hw    HardwareTimer
	last  Instant
	armed bool
	at    Instant
}

// NewMonotonic wraps a hardware timer
func NewMonotonic(hw HardwareTimer) *Monotonic {
	return &Monotonic{hw: hw}
}

// Now returns the current time. It never goes backwards.
func (m *Monotonic) Now() Instant {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	now := Instant(m.hw.Ticks())
	if now < m.last {
		return m.last
	}
	m.last = now
	return now
}

// Arm programs the alarm for the given instant, replacing any earlier one
func (m *Monotonic) Arm(at Instant) {
	m.armed = true
	m.at = at
	m.hw.SetAlarm(uint64(at))
}

// Disarm cancels the outstanding alarm
func (m *Monotonic) Disarm() {
	if !m.armed {
		return
	}
	m.armed = false
	m.hw.ClearAlarm()
}

// Armed reports the outstanding alarm time, if one is set
func (m *Monotonic) Armed() (Instant, bool) {
	return m.at, m.armed
}
