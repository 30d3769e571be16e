package watchmode

import (
	"context"
	"log/slog"

	"github.com/hostpatch/hostpatch/config"
	"github.com/hostpatch/hostpatch/internal/core/mediaguard"
	"github.com/hostpatch/hostpatch/internal/core/sched"
	"github.com/hostpatch/hostpatch/internal/core/waiter"
	"github.com/hostpatch/hostpatch/internal/opt/jobq"
	"github.com/hostpatch/hostpatch/internal/opt/wrk"
)

type Service interface {
	Status() *Status
	BriefConfig(ctx context.Context) *BriefConfig
	TriggerInit()
	RunWaiter() error

	// media operations, forwarded to the host through the guard
	SetSink(ctx context.Context, deviceID string) error
	GetDisplayMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error)
	GetUserMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error)
}

type Status struct {
	Monitor string `json:"monitor"`
	Sweep   string `json:"sweep,omitempty"`
}

// BriefConfig is the subset of configuration exposed to peer processes.
type BriefConfig struct {
	Critical     string `json:"critical"`
	MaxAttempts  int    `json:"max_attempts"`
	PreventCrash bool   `json:"prevent_crash"`
	SweepEnabled bool   `json:"sweep_enabled"`
}

type WatchServiceOpts struct {
	Waiter      *waiter.Waiter
	JobQueue    *jobq.JobQueue
	Debouncer   *sched.Debouncer
	Media       mediaguard.MediaDevices
	MonitorCtrl *wrk.WorkerController
	SweepCtrl   *wrk.WorkerController // nil when the sweep is disabled
}

type watchService struct {
	l           *slog.Logger
	w           *waiter.Waiter
	jobQueue    *jobq.JobQueue
	debouncer   *sched.Debouncer
	media       mediaguard.MediaDevices
	monitorCtrl *wrk.WorkerController
	sweepCtrl   *wrk.WorkerController
}

var _ Service = &watchService{}

func NewWatchService(opts *WatchServiceOpts) Service {
	return &watchService{
		l:           slog.With(slog.String("component", "watch-service")),
		w:           opts.Waiter,
		jobQueue:    opts.JobQueue,
		debouncer:   opts.Debouncer,
		media:       opts.Media,
		monitorCtrl: opts.MonitorCtrl,
		sweepCtrl:   opts.SweepCtrl,
	}
}

func (s *watchService) Status() *Status {
	st := &Status{
		Monitor: s.monitorCtrl.Status(),
	}
	if s.sweepCtrl != nil {
		st.Sweep = s.sweepCtrl.Status()
	}
	return st
}

func (s *watchService) BriefConfig(_ context.Context) *BriefConfig {
	cfg := config.Cfg()
	return &BriefConfig{
		Critical:     cfg.Waiter.Critical,
		MaxAttempts:  cfg.Waiter.MaxAttempts,
		PreventCrash: cfg.Media.PreventCrash,
		SweepEnabled: cfg.Sweep.Enable,
	}
}

func (s *watchService) TriggerInit() {
	s.debouncer.Trigger()
}

func (s *watchService) RunWaiter() error {
	return s.jobQueue.Submit("ensure-components", func(ctx context.Context) {
		if err := s.w.EnsureComponents(ctx); err != nil {
			s.l.Error("manual waiter run failed", slog.Any("err", err))
		}
	})
}

func (s *watchService) SetSink(ctx context.Context, deviceID string) error {
	return s.media.SetSink(ctx, deviceID)
}

func (s *watchService) GetDisplayMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error) {
	return s.media.GetDisplayMedia(ctx, constraints)
}

func (s *watchService) GetUserMedia(ctx context.Context, constraints mediaguard.Constraints) (mediaguard.Stream, error) {
	return s.media.GetUserMedia(ctx, constraints)
}
