package core

import "errors"

// TaskID identifies a registered task
type TaskID uint8

// Priority of a task. Higher values preempt lower ones. 0 is the
// thread (idle) level and cannot be used by tasks.
type Priority uint8

// Vector is a hardware interrupt number
type Vector uint8

const (
	IdlePriority Priority = 0
	MaxPriority  Priority = 255

	MaxTasks = 32
)

// TaskFunc is a task entry point. It runs to completion.
type TaskFunc func(ctx *Context)

// TaskState is the lifecycle state of a task slot
type TaskState uint8

const (
	TaskIdle TaskState = iota
	TaskQueued
	TaskRunning
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyScheduled = errors.New("task already scheduled")
	ErrUnknownTask      = errors.New("unknown task")
	ErrInvalidPriority  = errors.New("invalid task priority")
	ErrTooManyTasks     = errors.New("task table full")
	ErrBoundTask        = errors.New("task is bound to an interrupt vector")
	ErrVectorBound      = errors.New("interrupt vector already bound")
	ErrUnboundVector    = errors.New("no task bound to interrupt vector")
	ErrResourceNotOwned = errors.New("task may not access resource")
)

// taskSlot is one entry of the registration table.
// A slot holds at most one pending instance of its task.
type taskSlot struct {
	id   TaskID
	name string
	prio Priority
	fn   TaskFunc

	queued  bool // pending instance exists (timed or immediate)
	ready   bool // eligible to run now
	running bool

	due     Instant // valid while queued on the timer list
	readyAt Instant // due time, spawn time or trigger time
	seq     uint64  // ready order, for FIFO within a priority
	next    *taskSlot

	bound  bool
	vector Vector

	runs uint32
}

func (s *taskSlot) state() TaskState {
	switch {
	case s.queued || s.ready:
		return TaskQueued
	case s.running:
		return TaskRunning
	default:
		return TaskIdle
	}
}

// Context is handed to a task for the duration of one run.
// It gives the task access to its own scheduling without globals.
type Context struct {
	d    *Dispatcher
	slot *taskSlot

	// Scheduled is the due time for timed spawns, the spawn time for
	// immediate spawns, or the trigger time for bound interrupt tasks
	Scheduled Instant

	// Started is the time the run began
	Started Instant
}

// Task returns the running task's ID
func (c *Context) Task() TaskID {
	return c.slot.id
}

// Name returns the running task's registered name
func (c *Context) Name() string {
	return c.slot.name
}

// Now reads the monotonic clock
func (c *Context) Now() Instant {
	return c.d.clock.Now()
}

// SpawnAfter re-spawns the running task d ticks from now
func (c *Context) SpawnAfter(d Duration) error {
	return c.d.SpawnAfter(c.slot.id, d)
}

// SpawnAt re-spawns the running task at an absolute instant
func (c *Context) SpawnAt(at Instant) error {
	return c.d.SpawnAt(c.slot.id, at)
}
