package menusuperv

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hostpatch/hostpatch/internal/core/registry"
	"github.com/hostpatch/hostpatch/internal/core/waiter"
	"github.com/hostpatch/hostpatch/internal/opt/metrics"
)

const (
	DefaultWatchdogDelay = 3 * time.Second
	DefaultFallbackDelay = 5 * time.Second
)

// Refresher dispatches a synthetic resize event to the host document,
// nudging the UI into re-rendering.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

type Opts struct {
	WatchdogDelay time.Duration
	FallbackDelay time.Duration
}

// MenuSupervisor guards menu availability during startup. It arms a
// watchdog that runs the waiter (and escalates to a forced refresh) if the
// critical component has not appeared in time, and schedules a second,
// independent fallback waiter run as a safety net. The two timers are
// deliberately uncoordinated: both may fire, and each waiter invocation
// proceeds with its own retry state.
//
// Nothing here escalates to the host. Every failure is logged and the
// supervisor carries on.
type MenuSupervisor struct {
	l         *slog.Logger
	w         *waiter.Waiter
	reg       registry.Registry
	critical  registry.Query
	refresher Refresher
	opts      Opts
}

func NewMenuSupervisor(
	w *waiter.Waiter,
	reg registry.Registry,
	critical registry.Query,
	refresher Refresher,
	opts *Opts,
) *MenuSupervisor {
	o := *opts
	if o.WatchdogDelay <= 0 {
		o.WatchdogDelay = DefaultWatchdogDelay
	}
	if o.FallbackDelay <= 0 {
		o.FallbackDelay = DefaultFallbackDelay
	}
	return &MenuSupervisor{
		l:         slog.With(slog.String("component", "menu-supervisor")),
		w:         w,
		reg:       reg,
		critical:  critical,
		refresher: refresher,
		opts:      o,
	}
}

func (s *MenuSupervisor) log() *slog.Logger {
	if s.l != nil {
		return s.l
	}
	return slog.With(slog.String("component", "menu-supervisor"))
}

// Run arms the watchdog and the fallback timer, then blocks until both have
// settled (or ctx is canceled) and any waiter runs they spawned complete.
func (s *MenuSupervisor) Run(ctx context.Context) error {
	s.log().Info("menu supervisor armed",
		slog.Duration("watchdog-delay", s.opts.WatchdogDelay),
		slog.Duration("fallback-delay", s.opts.FallbackDelay),
	)

	// The first appearance of the critical component disarms the watchdog,
	// whatever state it is in. The fallback run stays scheduled.
	seen := make(chan struct{})
	var seenOnce sync.Once
	s.reg.WaitFor(s.critical, func(registry.Component) {
		seenOnce.Do(func() { close(seen) })
	})

	watchdog := time.NewTimer(s.opts.WatchdogDelay)
	defer watchdog.Stop()
	fallback := time.NewTimer(s.opts.FallbackDelay)
	defer fallback.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	watchdogSettled := false
	fallbackSettled := false

	for !watchdogSettled || !fallbackSettled {
		select {
		case <-ctx.Done():
			return nil

		case <-seen:
			seen = nil
			if !watchdogSettled {
				watchdog.Stop()
				watchdogSettled = true
				s.log().Debug("critical component appeared, watchdog disarmed",
					slog.String("query", s.critical.String()),
				)
			}

		case <-watchdog.C:
			watchdogSettled = true
			metrics.PatchMetricsCollector.IncWatchdogFirings()
			s.log().Warn("watchdog fired, menu not ready",
				slog.String("query", s.critical.String()),
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.ensureWithRefresh(ctx)
			}()

		case <-fallback.C:
			fallbackSettled = true
			s.log().Debug("fallback waiter run starting")
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.w.EnsureComponents(ctx); err != nil {
					s.log().Error("fallback waiter run failed", slog.Any("err", err))
				}
			}()
		}
	}
	return nil
}

func (s *MenuSupervisor) ensureWithRefresh(ctx context.Context) {
	err := s.w.EnsureComponents(ctx)
	if err == nil {
		return
	}
	s.log().Error("menu components unavailable, forcing refresh", slog.Any("err", err))

	metrics.PatchMetricsCollector.IncForcedRefreshes()
	if err := s.refresher.ForceRefresh(ctx); err != nil {
		s.log().Error("force refresh failed", slog.Any("err", err))
	}
}
