package detection

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_LatestWins(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var first, second atomic.Int32
	d.schedule(func() { first.Add(1) })
	d.schedule(func() { second.Add(1) })

	time.Sleep(60 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("superseded callback ran")
	}
	if second.Load() != 1 {
		t.Errorf("latest callback ran %d times, want 1", second.Load())
	}
}

func TestDebouncer_SpacedCallsAllRun(t *testing.T) {
	d := newDebouncer(5 * time.Millisecond)

	var n atomic.Int32
	d.schedule(func() { n.Add(1) })
	time.Sleep(30 * time.Millisecond)
	d.schedule(func() { n.Add(1) })
	time.Sleep(30 * time.Millisecond)

	if n.Load() != 2 {
		t.Errorf("got %d runs, want 2", n.Load())
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var n atomic.Int32
	d.schedule(func() { n.Add(1) })
	d.stop()

	time.Sleep(60 * time.Millisecond)
	if n.Load() != 0 {
		t.Error("stopped debouncer ran a callback")
	}

	// Schedules after stop are rejected.
	d.schedule(func() { n.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if n.Load() != 0 {
		t.Error("schedule after stop ran")
	}
}
