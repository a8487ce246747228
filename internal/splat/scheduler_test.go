package splat

import "testing"

// TestSchedulerFiresAtDeadline verifies tasks run once their delay elapses
func TestSchedulerFiresAtDeadline(t *testing.T) {
	s := NewScheduler()

	fired := false
	s.Schedule(0.5, func() { fired = true })

	s.Step(0.4)
	if fired {
		t.Error("Task fired before its deadline")
	}

	s.Step(0.1)
	if !fired {
		t.Error("Task should have fired at its deadline")
	}
	if s.Pending() != 0 {
		t.Errorf("Expected empty queue, got %d pending", s.Pending())
	}
}

// TestSchedulerZeroDelayFiresSameStep verifies delay 0 runs on the next Step,
// including tasks chained with zero delay from inside a running task
func TestSchedulerZeroDelayFiresSameStep(t *testing.T) {
	s := NewScheduler()

	var order []string
	s.Schedule(0, func() {
		order = append(order, "first")
		s.Schedule(0, func() {
			order = append(order, "chained")
		})
	})

	s.Step(0.01)

	if len(order) != 2 {
		t.Fatalf("Expected both tasks within one step, got %v", order)
	}
	if order[0] != "first" || order[1] != "chained" {
		t.Errorf("Wrong order: %v", order)
	}
}

// TestSchedulerDeterministicOrder verifies (deadline, then schedule order)
func TestSchedulerDeterministicOrder(t *testing.T) {
	s := NewScheduler()

	var order []int
	s.Schedule(0.2, func() { order = append(order, 2) })
	s.Schedule(0.1, func() { order = append(order, 1) })
	s.Schedule(0.2, func() { order = append(order, 3) })

	s.Step(1.0)

	if len(order) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(order))
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("Expected [1 2 3], got %v", order)
	}
}

// TestSchedulerClear verifies cleared tasks never run
func TestSchedulerClear(t *testing.T) {
	s := NewScheduler()

	fired := false
	s.Schedule(0, func() { fired = true })
	s.Clear()
	s.Step(1.0)

	if fired {
		t.Error("Cleared task should not fire")
	}
}
