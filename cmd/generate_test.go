package cmd

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerNeverOverlapsRuns(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	d := newDebouncer(time.Millisecond, func() {
		n := active.Add(1)
		for {
			seen := maxActive.Load()
			if n <= seen || maxActive.CompareAndSwap(seen, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
	})

	// Each trigger lands after the previous timer fired but while its run
	// is still sleeping.
	for i := 0; i < 4; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	d.Stop()
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	if got := maxActive.Load(); got != 1 {
		t.Fatalf("expected runs to be serialized, saw %d concurrent runs", got)
	}
	if runs.Load() == 0 {
		t.Fatal("expected at least one run")
	}
}

func TestDebouncerCollapsesBursts(t *testing.T) {
	var runs atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { runs.Add(1) })
	for i := 0; i < 5; i++ {
		d.Trigger()
	}
	time.Sleep(100 * time.Millisecond)
	d.Stop()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected a burst to run once, got %d", got)
	}
}
