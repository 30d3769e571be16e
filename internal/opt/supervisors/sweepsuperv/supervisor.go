package sweepsuperv

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/hostpatch/hostpatch/internal/core/waiter"
)

type Opts struct {
	Cron string
}

// SweepSupervisor re-runs the availability waiter on a cron schedule, as a
// periodic health sweep long after startup has finished.
type SweepSupervisor struct {
	l    *slog.Logger
	w    *waiter.Waiter
	opts *Opts
}

func NewSweepSupervisor(w *waiter.Waiter, opts *Opts) *SweepSupervisor {
	return &SweepSupervisor{
		l:    slog.With(slog.String("component", "sweep-supervisor")),
		w:    w,
		opts: opts,
	}
}

func (s *SweepSupervisor) log() *slog.Logger {
	if s.l != nil {
		return s.l
	}
	return slog.With(slog.String("component", "sweep-supervisor"))
}

// Run starts the schedule and blocks until ctx is canceled. In-flight
// sweeps are drained before returning.
func (s *SweepSupervisor) Run(ctx context.Context) error {
	// POSIX compatible cron syntax: "* * * * *". Without support of seconds.
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
	)))

	_, err := c.AddFunc(s.opts.Cron, func() {
		s.log().Info("starting scheduled availability sweep")
		if err := s.w.EnsureComponents(ctx); err != nil {
			s.log().Error("availability sweep failed", slog.Any("err", err))
			return
		}
		s.log().Info("availability sweep completed")
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
