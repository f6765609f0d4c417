package core

// Dispatcher is a single-core, priority-based task executor.
//
// Tasks run to completion. A task only preempts work of strictly lower
// priority; equal priorities run in spawn order. Timed spawns wait on a
// list sorted by due time, and the monotonic alarm is always armed for the
// head of that list. Tasks bound to an interrupt vector skip the list and
// become ready when the vector fires.
type Dispatcher struct {
	clock *Monotonic

	tasks     []*taskSlot
	vectors   map[Vector]*taskSlot
	timerList *taskSlot

	current Priority // priority of the code running right now
	seq     uint64
	started bool
	pend    func()

	runs uint32
}

// NewDispatcher creates a dispatcher driven by the given clock
func NewDispatcher(clock *Monotonic) *Dispatcher {
	return &Dispatcher{
		clock:   clock,
		vectors: make(map[Vector]*taskSlot),
	}
}

// Clock returns the dispatcher's monotonic clock
func (d *Dispatcher) Clock() *Monotonic {
	return d.clock
}

// SetPendHandler sets how a dispatch pass is requested from interrupt
// context. Targets pend a spare software interrupt whose handler calls
// Dispatch. With no handler, Dispatch runs in the caller's context.
func (d *Dispatcher) SetPendHandler(fn func()) {
	d.pend = fn
}

// Register adds a task to the registration table. Call during startup only.
func (d *Dispatcher) Register(name string, prio Priority, fn TaskFunc) (TaskID, error) {
	if prio == IdlePriority {
		return 0, ErrInvalidPriority
	}
	if len(d.tasks) >= MaxTasks {
		return 0, ErrTooManyTasks
	}

	slot := &taskSlot{
		id:   TaskID(len(d.tasks)),
		name: name,
		prio: prio,
		fn:   fn,
	}
	d.tasks = append(d.tasks, slot)
	return slot.id, nil
}

// Bind associates a task with a hardware interrupt vector.
// A bound task can no longer be spawned; it runs when Interrupt(v) is called.
func (d *Dispatcher) Bind(v Vector, id TaskID) error {
	slot, err := d.lookup(id)
	if err != nil {
		return err
	}
	if _, exists := d.vectors[v]; exists {
		return ErrVectorBound
	}
	if slot.queued {
		return ErrAlreadyScheduled
	}

	slot.bound = true
	slot.vector = v
	d.vectors[v] = slot
	return nil
}

func (d *Dispatcher) lookup(id TaskID) (*taskSlot, error) {
	if int(id) >= len(d.tasks) {
		return nil, ErrUnknownTask
	}
	return d.tasks[id], nil
}

// SpawnNow queues a task to run as soon as the processor is free at its
// priority. Fails with ErrAlreadyScheduled if an instance is already pending.
func (d *Dispatcher) SpawnNow(id TaskID) error {
	slot, err := d.lookup(id)
	if err != nil {
		return err
	}
	if slot.bound {
		return ErrBoundTask
	}

	state := disableInterrupts()
	now := d.clock.Now()
	if slot.queued {
		restoreInterrupts(state)
		RecordTiming(EvtSpawnReject, uint8(id), uint32(now), 0, 0)
		return ErrAlreadyScheduled
	}
	slot.queued = true
	d.makeReady(slot, now)
	restoreInterrupts(state)

	RecordTiming(EvtSpawn, uint8(id), uint32(now), uint32(now), 0)
	d.requestDispatch()
	return nil
}

// SpawnAfter queues a task to run dur ticks from now
func (d *Dispatcher) SpawnAfter(id TaskID, dur Duration) error {
	return d.SpawnAt(id, d.clock.Now().Add(dur))
}

// SpawnAt queues a task to run at the given instant. The task never runs
// before that tick; it may run later if higher-priority work is busy.
func (d *Dispatcher) SpawnAt(id TaskID, at Instant) error {
	slot, err := d.lookup(id)
	if err != nil {
		return err
	}
	if slot.bound {
		return ErrBoundTask
	}

	state := disableInterrupts()
	now := d.clock.Now()
	if slot.queued {
		restoreInterrupts(state)
		RecordTiming(EvtSpawnReject, uint8(id), uint32(now), uint32(at), 0)
		return ErrAlreadyScheduled
	}
	slot.queued = true
	slot.due = at
	d.insertTimer(slot)

	// New earliest deadline: move the alarm forward
	if d.timerList == slot {
		d.clock.Arm(at)
		RecordTiming(EvtAlarmArm, uint8(id), uint32(now), uint32(at), 0)
	}
	restoreInterrupts(state)

	RecordTiming(EvtSpawn, uint8(id), uint32(now), uint32(at), 0)
	return nil
}

// insertTimer inserts a slot in the timer list sorted by due time.
// Slots with equal due times keep their spawn order.
func (d *Dispatcher) insertTimer(s *taskSlot) {
	if d.timerList == nil || s.due < d.timerList.due {
		s.next = d.timerList
		d.timerList = s
		return
	}

	current := d.timerList
	for current.next != nil && current.next.due <= s.due {
		current = current.next
	}

	s.next = current.next
	current.next = s
}

// makeReady marks a slot eligible to run. Caller holds the critical section.
func (d *Dispatcher) makeReady(s *taskSlot, at Instant) {
	d.seq++
	s.seq = d.seq
	s.ready = true
	s.readyAt = at
}

// OnAlarm is the monotonic alarm interrupt handler. It releases every
// timed spawn that is due and re-arms the alarm for the next one.
func (d *Dispatcher) OnAlarm() {
	state := disableInterrupts()
	now := d.clock.Now()
	released := uint32(0)

	for d.timerList != nil && d.timerList.due <= now {
		slot := d.timerList
		d.timerList = slot.next
		slot.next = nil

		d.makeReady(slot, slot.due)
		released++
	}

	if d.timerList != nil {
		d.clock.Arm(d.timerList.due)
	} else {
		d.clock.Disarm()
	}
	restoreInterrupts(state)

	RecordTiming(EvtAlarmFire, 0, uint32(now), released, 0)
	if released > 0 {
		d.requestDispatch()
	}
}

// Interrupt is the prologue for a bound hardware interrupt. The bound task
// runs right away if it outranks the code currently running; otherwise it
// stays pending until the priority drops. Repeated triggers while pending
// collapse into one run, as a pending NVIC line does.
func (d *Dispatcher) Interrupt(v Vector) error {
	state := disableInterrupts()
	slot, ok := d.vectors[v]
	if !ok {
		restoreInterrupts(state)
		return ErrUnboundVector
	}
	now := d.clock.Now()
	d.makeReady(slot, now)
	restoreInterrupts(state)

	RecordTiming(EvtIRQ, uint8(slot.id), uint32(now), uint32(v), 0)
	if d.started {
		d.Dispatch()
	}
	return nil
}

// Start enables dispatching. Spawns made before Start only queue.
func (d *Dispatcher) Start() {
	d.started = true
	d.requestDispatch()
}

func (d *Dispatcher) requestDispatch() {
	if !d.started {
		return
	}
	if d.pend != nil {
		d.pend()
		return
	}
	d.Dispatch()
}

// Dispatch runs every ready task that outranks the current execution
// priority, highest priority first, each to completion. Targets call it
// from the software dispatch interrupt.
func (d *Dispatcher) Dispatch() {
	for {
		state := disableInterrupts()
		slot := d.nextReady()
		if slot == nil {
			restoreInterrupts(state)
			return
		}

		// The pending slot is released before the task runs, so the task
		// may spawn itself again.
		slot.ready = false
		slot.queued = false
		slot.running = true
		prev := d.current
		d.current = slot.prio
		ctx := Context{d: d, slot: slot, Scheduled: slot.readyAt}
		restoreInterrupts(state)

		ctx.Started = d.clock.Now()
		RecordTiming(EvtTaskRun, uint8(slot.id), uint32(ctx.Started), uint32(ctx.Scheduled), uint32(slot.prio))
		slot.fn(&ctx)

		state = disableInterrupts()
		slot.running = false
		slot.runs++
		d.runs++
		d.current = prev
		restoreInterrupts(state)
	}
}

// nextReady picks the highest-priority ready slot above the current
// priority, oldest first. Caller holds the critical section.
func (d *Dispatcher) nextReady() *taskSlot {
	var best *taskSlot
	for _, s := range d.tasks {
		if !s.ready || s.prio <= d.current {
			continue
		}
		if best == nil || s.prio > best.prio || (s.prio == best.prio && s.seq < best.seq) {
			best = s
		}
	}
	return best
}

// raise lifts the current execution priority to at least ceiling and
// returns the previous level
func (d *Dispatcher) raise(ceiling Priority) Priority {
	state := disableInterrupts()
	prev := d.current
	if ceiling > prev {
		d.current = ceiling
	}
	restoreInterrupts(state)
	return prev
}

// lower restores a priority saved by raise and runs anything deferred
func (d *Dispatcher) lower(prev Priority) {
	state := disableInterrupts()
	d.current = prev
	restoreInterrupts(state)
	if d.started {
		d.Dispatch()
	}
}

// State returns the lifecycle state of a task
func (d *Dispatcher) State(id TaskID) TaskState {
	slot, err := d.lookup(id)
	if err != nil {
		return TaskIdle
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return slot.state()
}

// TaskRuns returns how many times a task has completed
func (d *Dispatcher) TaskRuns(id TaskID) uint32 {
	slot, err := d.lookup(id)
	if err != nil {
		return 0
	}
	return slot.runs
}

// TaskName returns a task's registered name
func (d *Dispatcher) TaskName(id TaskID) string {
	slot, err := d.lookup(id)
	if err != nil {
		return ""
	}
	return slot.name
}

// Runs returns the total number of completed task runs
func (d *Dispatcher) Runs() uint32 {
	return d.runs
}

// CurrentPriority returns the execution priority of the running code
func (d *Dispatcher) CurrentPriority() Priority {
	return d.current
}

// NextDue returns the earliest pending timed spawn
func (d *Dispatcher) NextDue() (Instant, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if d.timerList == nil {
		return 0, false
	}
	return d.timerList.due, true
}

// IsIdle reports whether nothing is ready or running. Timed spawns that
// are not yet due do not count.
func (d *Dispatcher) IsIdle() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for _, s := range d.tasks {
		if s.ready || s.running {
			return false
		}
	}
	return true
}
