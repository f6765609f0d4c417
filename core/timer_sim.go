package core

// SimTimer is a software HardwareTimer for host builds and tests.
// Time only moves when Advance or AdvanceTo is called; alarms fire
// synchronously at their exact tick while time is being advanced.
type SimTimer struct {
	ticks   uint64
	alarmAt uint64
	armed   bool
	handler func()
}

// NewSimTimer creates a simulated timer starting at tick 0
func NewSimTimer() *SimTimer {
	return &SimTimer{}
}

// SetAlarmHandler sets the function called when the alarm fires
func (t *SimTimer) SetAlarmHandler(fn func()) {
	t.handler = fn
}

// Ticks returns the simulated counter
func (t *SimTimer) Ticks() uint64 {
	return t.ticks
}

// SetAlarm arms the alarm. An alarm at or before the current tick fires on
// the next Advance, including Advance(0).
func (t *SimTimer) SetAlarm(at uint64) {
	t.alarmAt = at
	t.armed = true
}

// ClearAlarm disarms the alarm
func (t *SimTimer) ClearAlarm() {
	t.armed = false
}

// AlarmArmed reports whether an alarm is pending and when
func (t *SimTimer) AlarmArmed() (uint64, bool) {
	return t.alarmAt, t.armed
}

// Advance moves time forward by d ticks, firing alarms on the way
func (t *SimTimer) Advance(d Duration) {
	t.AdvanceTo(Instant(t.ticks + uint64(d)))
}

// AdvanceTo moves time forward to the given instant, firing every alarm
// that falls due on the way. The counter stops at each alarm's tick
// while its handler runs.
func (t *SimTimer) AdvanceTo(target Instant) {
	for t.armed && t.alarmAt <= uint64(target) {
		if t.alarmAt > t.ticks {
			t.ticks = t.alarmAt
		}
		t.armed = false
		if t.handler != nil {
			t.handler()
		}
	}
	if uint64(target) > t.ticks {
		t.ticks = uint64(target)
	}
}
