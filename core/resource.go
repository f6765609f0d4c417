package core

// Shared is a cell of state shared between tasks, guarded by the
// priority ceiling protocol. While a task holds the lock, the execution
// priority is raised to the highest priority of any task that may touch
// the cell, so no other user can preempt the critical section.
type Shared[T any] struct {
	d       *Dispatcher
	value   T
	users   uint32 // bitmask of TaskIDs allowed access
	ceiling Priority
}

// NewShared creates a shared cell usable by the given tasks
func NewShared[T any](d *Dispatcher, value T, users ...TaskID) (*Shared[T], error) {
	s := &Shared[T]{d: d, value: value}
	for _, id := range users {
		slot, err := d.lookup(id)
		if err != nil {
			return nil, err
		}
		s.users |= 1 << id
		if slot.prio > s.ceiling {
			s.ceiling = slot.prio
		}
	}
	return s, nil
}

// Ceiling returns the priority the lock raises to
func (s *Shared[T]) Ceiling() Priority {
	return s.ceiling
}

// Lock runs fn with exclusive access to the value. Work that became ready
// during the critical section at or below the ceiling runs after it.
func (s *Shared[T]) Lock(ctx *Context, fn func(v *T)) error {
	if s.users&(1<<ctx.Task()) == 0 {
		return ErrResourceNotOwned
	}

	prev := s.d.raise(s.ceiling)
	fn(&s.value)
	s.d.lower(prev)
	return nil
}
