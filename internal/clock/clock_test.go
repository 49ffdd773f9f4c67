package clock

import (
	"testing"
	"time"
)

func TestManualAdvanceRunsDueTasksInOrder(t *testing.T) {
	c := NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var order []string
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(5*time.Second, func() { order = append(order, "late") })

	c.Advance(3 * time.Second)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order: %v", order)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending task, got %d", c.Pending())
	}
	if got := c.Now(); !got.Equal(time.Date(2024, 1, 1, 0, 0, 3, 0, time.UTC)) {
		t.Fatalf("unexpected now: %v", got)
	}
}

func TestManualStop(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	ran := false
	timer := c.AfterFunc(time.Second, func() { ran = true })

	if !timer.Stop() {
		t.Fatalf("expected Stop to report cancellation")
	}
	if timer.Stop() {
		t.Fatalf("expected second Stop to report false")
	}
	c.Advance(time.Minute)
	if ran {
		t.Fatalf("stopped task ran")
	}
}

func TestManualNestedScheduling(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	count := 0
	c.AfterFunc(time.Second, func() {
		count++
		c.AfterFunc(time.Second, func() { count++ })
	})

	c.Advance(1500 * time.Millisecond)
	if count != 1 {
		t.Fatalf("expected 1 run, got %d", count)
	}
	c.Advance(time.Second)
	if count != 2 {
		t.Fatalf("expected nested task to run, got %d", count)
	}
}
