package core

import (
	"errors"
	"testing"
)

func TestSharedCeiling(t *testing.T) {
	d, _ := newTestDispatcher(t)

	low := mustRegister(t, d, "low", 1, func(*Context) {})
	high := mustRegister(t, d, "high", 3, func(*Context) {})
	mustRegister(t, d, "other", 5, func(*Context) {})

	cell, err := NewShared(d, 0, low, high)
	if err != nil {
		t.Fatalf("NewShared failed: %v", err)
	}
	if cell.Ceiling() != 3 {
		t.Errorf("Expected ceiling 3, got %d", cell.Ceiling())
	}

	if _, err := NewShared(d, 0, TaskID(99)); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Expected ErrUnknownTask, got %v", err)
	}
}

func TestSharedLockDefersUsersUntilRelease(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Start()

	var order []string
	var cell *Shared[int]

	// "outsider" outranks the ceiling and may preempt the critical section
	outsider := mustRegister(t, d, "outsider", 4, func(*Context) {
		order = append(order, "outsider")
	})

	high := mustRegister(t, d, "high", 3, func(ctx *Context) {
		if err := cell.Lock(ctx, func(v *int) {
			*v += 10
			order = append(order, "high:locked")
		}); err != nil {
			t.Errorf("high Lock failed: %v", err)
		}
	})

	low := mustRegister(t, d, "low", 1, func(ctx *Context) {
		err := cell.Lock(ctx, func(v *int) {
			order = append(order, "low:enter")
			if d.CurrentPriority() != 3 {
				t.Errorf("Expected priority raised to 3, got %d", d.CurrentPriority())
			}
			_ = d.SpawnNow(high)
			_ = d.SpawnNow(outsider)
			*v++
			order = append(order, "low:exit")
		})
		if err != nil {
			t.Errorf("low Lock failed: %v", err)
		}
		order = append(order, "low:after")
	})

	var err error
	cell, err = NewShared(d, 0, low, high)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SpawnNow(low); err != nil {
		t.Fatal(err)
	}

	expected := []string{"low:enter", "outsider", "low:exit", "high:locked", "low:after"}
	if len(order) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], order[i])
		}
	}

	if d.CurrentPriority() != IdlePriority {
		t.Errorf("Priority not restored: %d", d.CurrentPriority())
	}
	var total int
	probe := mustRegister(t, d, "probe", 1, func(ctx *Context) {
		if err := cell.Lock(ctx, func(v *int) { total = *v }); !errors.Is(err, ErrResourceNotOwned) {
			t.Errorf("Expected ErrResourceNotOwned, got %v", err)
		}
	})
	_ = d.SpawnNow(probe)
	if total != 0 {
		t.Errorf("Unowned lock ran its body")
	}
}
