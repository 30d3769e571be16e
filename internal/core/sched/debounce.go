package sched

import (
	"sync"
	"time"

	"github.com/hostpatch/hostpatch/internal/opt/metrics"
)

const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces bursts of Trigger calls into a single fn invocation,
// fired once the window has elapsed after the last call.
type Debouncer struct {
	mu     sync.Mutex
	sched  Scheduler
	window time.Duration
	tag    string
	fn     func()
	cancel func()
}

func NewDebouncer(s Scheduler, window time.Duration, tag string, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		sched:  s,
		window: window,
		tag:    tag,
		fn:     fn,
	}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		metrics.PatchMetricsCollector.IncDebounceCoalesced()
	}
	d.cancel = d.sched.After(d.window, d.tag, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.cancel = nil
	d.mu.Unlock()
	d.fn()
}
