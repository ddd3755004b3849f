package detection

import (
	"sync"
	"time"
)

// debouncer coalesces bursty emissions into one: each schedule cancels
// any pending callback and arms a fresh timer, so only the most recent
// callback within the window runs (latest-wins, never reordered).
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// schedule arms fn to run after the debounce window, replacing any
// pending callback.
func (d *debouncer) schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// stop cancels any pending callback and rejects future schedules.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
