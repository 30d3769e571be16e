package watchmode

import (
	"log/slog"
	"net/http"

	"github.com/hostpatch/hostpatch/config"
	"github.com/hostpatch/hostpatch/internal/opt/shared"
	"github.com/hostpatch/hostpatch/internal/opt/shared/middleware"
	"github.com/hostpatch/hostpatch/internal/opt/shared/x/httpx"
	"github.com/hostpatch/hostpatch/internal/opt/wrk"

	"golang.org/x/time/rate"
)

type WatchHandlerOpts struct {
	Service Service
	Verbose bool

	MonitorController *wrk.WorkerController
	SweepController   *wrk.WorkerController // nil when the sweep is disabled
}

func Init(opts *WatchHandlerOpts) http.Handler {
	cfg := config.Cfg()
	l := slog.With(slog.String("component", "watch-api"))

	controller := NewWatchController(opts.Service)

	// init middlewares
	loggingMiddleware := middleware.LoggingMiddleware{
		Logger:  l,
		Verbose: opts.Verbose,
	}
	rateLimitMiddleware := middleware.RateLimiterMiddleware{Limiter: rate.NewLimiter(5, 10)}

	// Build middleware chain
	chain := []middleware.Middleware{
		middleware.SafeHandlerMiddleware,
		loggingMiddleware.Middleware,
		rateLimitMiddleware.Middleware,
	}
	if cfg.Main.AuthToken != "" {
		authMiddleware := middleware.AuthMiddleware{Token: cfg.Main.AuthToken}
		chain = append(chain, authMiddleware.Middleware)
	}
	secureChain := middleware.Chain(chain...)

	// Init handlers
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/status", secureChain(http.HandlerFunc(controller.StatusHandler)))
	mux.Handle("/config", secureChain(http.HandlerFunc(controller.BriefConfigHandler)))

	// patch operations
	mux.Handle("POST /api/v1/waiter/run", secureChain(http.HandlerFunc(controller.RunWaiterHandler)))
	mux.Handle("POST /api/v1/init", secureChain(http.HandlerFunc(controller.InitHandler)))

	// guarded media operations
	mux.Handle("POST /api/v1/media/sink", secureChain(http.HandlerFunc(controller.SetSinkHandler)))
	mux.Handle("POST /api/v1/media/display-capture", secureChain(http.HandlerFunc(controller.DisplayMediaHandler)))
	mux.Handle("POST /api/v1/media/user-media", secureChain(http.HandlerFunc(controller.UserMediaHandler)))

	// daemon control
	mux.Handle("POST /api/v1/daemons/monitor/start", secureChain(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			opts.MonitorController.Start()
			httpx.WriteJSON(w, http.StatusOK, map[string]string{
				"status": opts.MonitorController.Status(),
			})
		})))
	mux.Handle("POST /api/v1/daemons/monitor/stop", secureChain(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			opts.MonitorController.Stop()
			httpx.WriteJSON(w, http.StatusOK, map[string]string{
				"status": opts.MonitorController.Status(),
			})
		})))

	if opts.SweepController != nil {
		mux.Handle("POST /api/v1/daemons/sweep/start", secureChain(http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				opts.SweepController.Start()
				httpx.WriteJSON(w, http.StatusOK, map[string]string{
					"status": opts.SweepController.Status(),
				})
			})))
		mux.Handle("POST /api/v1/daemons/sweep/stop", secureChain(http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				opts.SweepController.Stop()
				httpx.WriteJSON(w, http.StatusOK, map[string]string{
					"status": opts.SweepController.Status(),
				})
			})))
	}

	shared.InitOptionalHandlers(cfg, mux, l)

	return mux
}
