package des

import "testing"

func TestStepOrdersBySeqWithinTick(t *testing.T) {
	c := NewClock()
	var order []int
	c.Arm(10, func(Tick) { order = append(order, 1) })
	c.Arm(10, func(Tick) { order = append(order, 2) })
	c.Arm(5, func(Tick) { order = append(order, 0) })

	c.RunUntilIdle()

	want := []int{0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestReArmReplacesPendingEvent(t *testing.T) {
	c := NewClock()
	fired := 0
	h := c.Arm(100, func(Tick) { fired++ })
	h = c.ReArm(h, 10, func(Tick) { fired++ })
	_ = h

	c.RunUntilIdle()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 (re-arm must replace, not add)", fired)
	}
	if c.Now() != 10 {
		t.Fatalf("Now() = %d, want 10", c.Now())
	}
}

func TestCancelIsNoOpAfterFire(t *testing.T) {
	c := NewClock()
	h := c.Arm(1, func(Tick) {})
	c.RunUntilIdle()
	c.Cancel(h) // must not panic
}

func TestNextTickNeverWhenEmpty(t *testing.T) {
	c := NewClock()
	if c.NextTick() != Never {
		t.Fatalf("NextTick() on empty clock = %d, want Never", c.NextTick())
	}
}
