package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordScheduler captures every After call without arming real timers.
type recordScheduler struct {
	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	d        time.Duration
	tag      string
	fn       func()
	canceled bool
}

func (r *recordScheduler) After(d time.Duration, tag string, fn func()) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := len(r.calls)
	r.calls = append(r.calls, recordedCall{d: d, tag: tag, fn: fn})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[idx].canceled = true
	}
}

func (r *recordScheduler) last(t *testing.T) recordedCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func TestTimerScheduler_Fires(t *testing.T) {
	done := make(chan struct{})
	TimerScheduler{}.After(5*time.Millisecond, "t", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestTimerScheduler_CancelStopsCallback(t *testing.T) {
	var fired bool
	var mu sync.Mutex

	cancel := TimerScheduler{}.After(30*time.Millisecond, "t", func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	cancel()

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	assert.False(t, fired)
	mu.Unlock()
}

func TestFastPath_RewritesZeroDelayForKnownTag(t *testing.T) {
	rec := &recordScheduler{}
	f := NewFastPath(rec, []string{"bootstrap"})

	f.After(0, "bootstrap", func() {})
	assert.Equal(t, time.Millisecond, rec.last(t).d)
}

func TestFastPath_PassesThroughUnknownTag(t *testing.T) {
	rec := &recordScheduler{}
	f := NewFastPath(rec, []string{"bootstrap"})

	f.After(0, "other", func() {})
	assert.Equal(t, time.Duration(0), rec.last(t).d)
}

func TestFastPath_PassesThroughNonZeroDelay(t *testing.T) {
	rec := &recordScheduler{}
	f := NewFastPath(rec, []string{"bootstrap"})

	f.After(2*time.Second, "bootstrap", func() {})
	assert.Equal(t, 2*time.Second, rec.last(t).d)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var mu sync.Mutex
	fires := 0

	d := NewDebouncer(TimerScheduler{}, 30*time.Millisecond, "init", func() {
		mu.Lock()
		fires++
		mu.Unlock()
	})

	d.Trigger()
	d.Trigger()
	d.Trigger()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, fires)
	mu.Unlock()

	// A later trigger starts a fresh window.
	d.Trigger()
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 2, fires)
	mu.Unlock()
}

func TestDebouncer_CancelsPendingScheduleOnRetrigger(t *testing.T) {
	rec := &recordScheduler{}
	d := NewDebouncer(rec, 50*time.Millisecond, "init", func() {})

	d.Trigger()
	d.Trigger()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.calls, 2)
	assert.True(t, rec.calls[0].canceled)
	assert.False(t, rec.calls[1].canceled)
}
