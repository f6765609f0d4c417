package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a scheduling event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Task      uint8  // Task ID
	Clock     uint32 // Low 32 bits of the monotonic clock at the event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtSpawn       = 1 // Task spawned (v1 = due time)
	EvtSpawnReject = 2 // Spawn rejected, instance already pending
	EvtAlarmArm    = 3 // Alarm moved to an earlier deadline
	EvtAlarmFire   = 4 // Alarm fired (v1 = tasks released)
	EvtTaskRun     = 5 // Task started (v1 = scheduled time, v2 = priority)
	EvtIRQ         = 6 // Bound interrupt triggered (v1 = vector)
	EvtHalt        = 7 // Fatal halt
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
	DebugRingSize  = 16 // Buffered diagnostic lines awaiting the idle loop
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  = true

	// Lines queued from task context, drained by FlushDebug
	debugRing    [DebugRingSize]string
	debugHead    uint8
	debugCount   uint8
	debugDropped uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetTimingEnabled turns timing capture on or off
func SetTimingEnabled(enabled bool) {
	timingEnabled = enabled
}

// DebugPrintln writes a debug message immediately. Use it outside of
// tasks, where blocking on the output is acceptable.
func DebugPrintln(msg string) {
	if debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message without blocking. Tasks use this;
// the idle loop writes the messages out. Drops the message when full.
func DebugAsync(msg string) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if debugCount == DebugRingSize {
		debugDropped++
		return
	}
	idx := (debugHead + debugCount) % DebugRingSize
	debugRing[idx] = msg
	debugCount++
}

// FlushDebug writes out every queued message, oldest first.
// Returns the number written.
func FlushDebug() int {
	n := 0
	for {
		state := disableInterrupts()
		if debugCount == 0 {
			restoreInterrupts(state)
			return n
		}
		msg := debugRing[debugHead]
		debugRing[debugHead] = ""
		debugHead = (debugHead + 1) % DebugRingSize
		debugCount--
		restoreInterrupts(state)

		DebugPrintln(msg)
		n++
	}
}

// DebugDropped returns how many queued messages were lost to overflow
func DebugDropped() uint32 {
	return debugDropped
}

// ResetDebug discards queued messages and the drop counter
func ResetDebug() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for i := range debugRing {
		debugRing[i] = ""
	}
	debugHead = 0
	debugCount = 0
	debugDropped = 0
}

// RecordTiming captures a timing event in the ring buffer
// This is always non-blocking and very fast (~20ns)
func RecordTiming(eventType, task uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	state := disableInterrupts()
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Task:      task,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
	restoreInterrupts(state)
}

// TimingEvents returns the ring contents, oldest first, skipping empty slots
func TimingEvents() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns the short name used in timing dumps
func EventName(eventType uint8) string {
	switch eventType {
	case EvtSpawn:
		return "SPAWN"
	case EvtSpawnReject:
		return "SPAWN_REJECT!"
	case EvtAlarmArm:
		return "ALARM_ARM"
	case EvtAlarmFire:
		return "ALARM_FIRE"
	case EvtTaskRun:
		return "TASK_RUN"
	case EvtIRQ:
		return "IRQ"
	case EvtHalt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}

// DumpTimingRing outputs the timing ring buffer (call on halt)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + EventName(evt.EventType) +
			" task=" + itoa(int(evt.Task)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
