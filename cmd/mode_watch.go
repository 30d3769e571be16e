package cmd

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/hostpatch/hostpatch/cmd/cmdutils"
	"github.com/hostpatch/hostpatch/cmd/loops"
	"github.com/hostpatch/hostpatch/config"
	"github.com/hostpatch/hostpatch/internal/core/host"
	"github.com/hostpatch/hostpatch/internal/core/mediaguard"
	"github.com/hostpatch/hostpatch/internal/core/registry"
	"github.com/hostpatch/hostpatch/internal/core/sched"
	"github.com/hostpatch/hostpatch/internal/core/syncpause"
	"github.com/hostpatch/hostpatch/internal/core/waiter"
	"github.com/hostpatch/hostpatch/internal/opt/jobq"
	"github.com/hostpatch/hostpatch/internal/opt/metrics"
	"github.com/hostpatch/hostpatch/internal/opt/modes/watchmode"
	"github.com/hostpatch/hostpatch/internal/opt/supervisors/menusuperv"
	"github.com/hostpatch/hostpatch/internal/opt/supervisors/sweepsuperv"
	"github.com/hostpatch/hostpatch/internal/opt/wrk"
)

type WatchModeOpts struct {
	ListenPort int
	Verbose    bool
}

func RunWatchMode(opts *WatchModeOpts) {
	cfg := config.Cfg()

	// setup context
	ctx, cancel := context.WithCancel(context.Background())
	ctx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()
	defer cancel()

	// print options
	slog.LogAttrs(ctx, slog.LevelInfo, "opts", slog.Any("opts", opts))

	if cfg.Metrics.Enable {
		metrics.InitPromMetrics(ctx)
	}

	// host control API client
	hostClient, err := host.NewClient(&host.Opts{
		Addr:         cfg.Host.Addr,
		Token:        cfg.Host.Token,
		Timeout:      cmdutils.ParseDurationOrDefault(cfg.Host.Timeout, host.DefaultTimeout),
		PollInterval: cmdutils.ParseDurationOrDefault(cfg.Host.PollInterval, host.DefaultPollInterval),
		WaitBudget:   cmdutils.ParseDurationOrDefault(cfg.Host.WaitBudget, host.DefaultWaitBudget),
	})
	if err != nil {
		//nolint:gocritic
		log.Fatal(err)
	}

	// component queries
	critical := registry.ByName(cfg.Waiter.Critical)
	w := waiter.NewWaiter(hostClient, &waiter.Opts{
		Queries:      buildQueries(cfg.Waiter.Components),
		Critical:     critical,
		QueryTimeout: cmdutils.ParseDurationOrDefault(cfg.Waiter.QueryTimeout, waiter.DefaultQueryTimeout),
		RetryDelay:   cmdutils.ParseDurationOrDefault(cfg.Waiter.RetryDelay, waiter.DefaultRetryDelay),
		MaxAttempts:  cfg.Waiter.MaxAttempts,
	})

	// process-wide scheduler: fast-paths tagged zero-delay callbacks
	scheduler := sched.NewFastPath(sched.TimerScheduler{}, cfg.Startup.FastPathTags)

	// pause settings sync for the startup window
	if cfg.Startup.SyncPauseEnable {
		window := cmdutils.ParseDurationOrDefault(cfg.Startup.SyncPauseWindow, syncpause.DefaultWindow)
		if err := syncpause.Pause(ctx, hostClient, scheduler, window); err != nil {
			slog.Error("settings sync pause failed", slog.Any("err", err))
		}
	}

	// debounced plugin-init trigger
	debouncer := sched.NewDebouncer(
		scheduler,
		cmdutils.ParseDurationOrDefault(cfg.Startup.DebounceWindow, sched.DefaultDebounceWindow),
		"plugin-init",
		func() {
			if err := hostClient.InitPlugins(context.Background()); err != nil {
				slog.Error("plugin init failed", slog.Any("err", err))
			}
		},
	)

	// guarded media surface
	guard := mediaguard.NewGuard(hostClient, mediaguard.Policy{
		PreventCrash:  cfg.Media.PreventCrash,
		LogSuppressed: cfg.Media.LogSuppressed,
	})

	// job queue for manual waiter runs
	jobQueue := jobq.NewJobQueue(4)
	jobQueue.Start(ctx)

	// menu supervisor (watchdog + fallback)
	monitor := menusuperv.NewMenuSupervisor(w, hostClient, critical, hostClient, &menusuperv.Opts{
		WatchdogDelay: cmdutils.ParseDurationOrDefault(cfg.Monitor.WatchdogDelay, menusuperv.DefaultWatchdogDelay),
		FallbackDelay: cmdutils.ParseDurationOrDefault(cfg.Monitor.FallbackDelay, menusuperv.DefaultFallbackDelay),
	})
	monitorCtrl := wrk.NewWorkerController(ctx, slog.With(slog.String("component", "monitor-ctr")), monitor.Run)
	if cfg.Monitor.Enable {
		monitorCtrl.Start()
	}

	// periodic availability sweep
	var sweepCtrl *wrk.WorkerController
	if cfg.Sweep.Enable && cfg.Sweep.Cron != "" {
		sweep := sweepsuperv.NewSweepSupervisor(w, &sweepsuperv.Opts{Cron: cfg.Sweep.Cron})
		sweepCtrl = wrk.NewWorkerController(ctx, slog.With(slog.String("component", "sweep-ctr")), sweep.Run)
		sweepCtrl.Start()
	}

	service := watchmode.NewWatchService(&watchmode.WatchServiceOpts{
		Waiter:      w,
		JobQueue:    jobQueue,
		Debouncer:   debouncer,
		Media:       guard,
		MonitorCtrl: monitorCtrl,
		SweepCtrl:   sweepCtrl,
	})

	// Use WaitGroup to wait for all goroutines to finish
	var wg sync.WaitGroup

	// HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("control API panicked",
					slog.Any("panic", r),
					slog.String("goroutine", "control-srv"),
				)
			}
		}()

		handlers := watchmode.Init(&watchmode.WatchHandlerOpts{
			Service:           service,
			Verbose:           opts.Verbose,
			MonitorController: monitorCtrl,
			SweepController:   sweepCtrl,
		})
		if err := loops.NewControlSrv(opts.ListenPort, handlers).Run(ctx); err != nil {
			slog.Error("control API failed", slog.Any("err", err))
		}
	}()

	// Wait for signal (context cancellation)
	<-ctx.Done()
	slog.Info("shutting down, waiting for goroutines...")

	monitorCtrl.Wait()
	if sweepCtrl != nil {
		sweepCtrl.Wait()
	}

	// Wait for all goroutines to finish
	wg.Wait()
	slog.Info("all components shut down cleanly")
}

// buildQueries maps the configured component list onto registry queries.
// Entries prefixed with "src:" match by module source fragment, everything
// else matches by name.
func buildQueries(components []string) []registry.Query {
	queries := make([]registry.Query, 0, len(components))
	for _, c := range components {
		if frag, ok := strings.CutPrefix(c, "src:"); ok {
			queries = append(queries, registry.BySourceFragment(frag))
			continue
		}
		queries = append(queries, registry.ByName(c))
	}
	return queries
}
