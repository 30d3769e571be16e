package sched

import (
	"log/slog"
	"time"

	"github.com/hostpatch/hostpatch/internal/opt/metrics"
)

// Scheduler defers fn by d. The tag identifies the purpose of the callback
// and is supplied explicitly by the caller. The returned cancel stops the
// callback if it has not fired yet.
type Scheduler interface {
	After(d time.Duration, tag string, fn func()) (cancel func())
}

// TimerScheduler schedules on plain runtime timers.
type TimerScheduler struct{}

var _ Scheduler = TimerScheduler{}

func (TimerScheduler) After(d time.Duration, _ string, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// FastPath reschedules zero-delay callbacks carrying a known tag into a 1ms
// slot; the host clamps zero-delay callbacks to a coarser tick, and the 1ms
// slot dodges the clamp. Everything else passes through unchanged.
type FastPath struct {
	l     *slog.Logger
	inner Scheduler
	tags  map[string]struct{}
}

var _ Scheduler = &FastPath{}

func NewFastPath(inner Scheduler, tags []string) *FastPath {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return &FastPath{
		l:     slog.With(slog.String("component", "sched-fastpath")),
		inner: inner,
		tags:  set,
	}
}

func (f *FastPath) log() *slog.Logger {
	if f.l != nil {
		return f.l
	}
	return slog.With(slog.String("component", "sched-fastpath"))
}

func (f *FastPath) After(d time.Duration, tag string, fn func()) func() {
	if d == 0 {
		if _, ok := f.tags[tag]; ok {
			f.log().Debug("fast-pathing zero-delay callback", slog.String("tag", tag))
			metrics.PatchMetricsCollector.IncFastPathHits(tag)
			d = time.Millisecond
		}
	}
	return f.inner.After(d, tag, fn)
}
