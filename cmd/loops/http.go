package loops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ControlSrv serves the patch control API. Run blocks until ctx is
// canceled, then drains in-flight requests within shutdownTimeout.
type ControlSrv struct {
	l       *slog.Logger
	port    int
	handler http.Handler
}

func NewControlSrv(port int, handler http.Handler) *ControlSrv {
	return &ControlSrv{
		l:       slog.With(slog.String("component", "control-srv")),
		port:    port,
		handler: handler,
	}
}

func (s *ControlSrv) log() *slog.Logger {
	if s.l != nil {
		return s.l
	}
	return slog.With(slog.String("component", "control-srv"))
}

func (s *ControlSrv) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log().Error("control API shutdown error", slog.Any("err", err))
		} else {
			s.log().Debug("control API shut down")
		}
	}()

	s.log().Info("starting control API", slog.String("addr", srv.Addr))

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
