package waiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"

	"github.com/hostpatch/hostpatch/internal/core/registry"
	"github.com/hostpatch/hostpatch/internal/opt/metrics"
)

// ErrComponentsUnavailable is reported when the critical component never
// appears within the retry budget.
var ErrComponentsUnavailable = errors.New("critical component unavailable")

const (
	DefaultQueryTimeout = 2 * time.Second
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxAttempts  = 5
)

type Opts struct {
	// Queries is the best-effort set. A timeout on any of them is logged
	// and never fails the cycle.
	Queries []registry.Query

	// Critical is the single query that gates success.
	Critical registry.Query

	QueryTimeout time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
}

// Waiter polls the host registry for a fixed set of components. Each
// invocation of EnsureComponents carries its own attempt counter, so
// concurrent invocations proceed independently (duplicate work, no shared
// state).
type Waiter struct {
	l    *slog.Logger
	reg  registry.Registry
	opts Opts
}

func NewWaiter(reg registry.Registry, opts *Opts) *Waiter {
	o := *opts
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = DefaultQueryTimeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return &Waiter{
		l:    slog.With(slog.String("component", "waiter")),
		reg:  reg,
		opts: o,
	}
}

func (w *Waiter) log() *slog.Logger {
	if w.l != nil {
		return w.l
	}
	return slog.With(slog.String("component", "waiter"))
}

// EnsureComponents runs availability cycles until the critical component is
// present, up to MaxAttempts. Only the critical query gates the outcome: the
// component set is instrumentation, and per-query timeouts are tolerated.
func (w *Waiter) EnsureComponents(ctx context.Context) error {
	start := time.Now()

	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: w.opts.RetryDelay,
		MaxBackoff: w.opts.RetryDelay,
		MaxRetries: w.opts.MaxAttempts,
	})

	for boff.Ongoing() {
		attempt := boff.NumRetries() + 1
		metrics.PatchMetricsCollector.IncWaiterAttempts()
		w.log().Debug("availability cycle started",
			slog.Int("attempt", attempt),
			slog.Int("max-attempts", w.opts.MaxAttempts),
		)

		w.awaitSet(ctx, attempt)

		if w.awaitQuery(ctx, w.opts.Critical) {
			w.log().Info("critical component available",
				slog.String("query", w.opts.Critical.String()),
				slog.Int("attempt", attempt),
			)
			metrics.PatchMetricsCollector.IncWaiterCycles("success")
			metrics.PatchMetricsCollector.ObserveWaiterCycleDuration(time.Since(start).Seconds())
			return nil
		}

		w.log().Warn("critical component missing, retrying",
			slog.String("query", w.opts.Critical.String()),
			slog.Int("attempt", attempt),
		)
		boff.Wait()
	}

	metrics.PatchMetricsCollector.ObserveWaiterCycleDuration(time.Since(start).Seconds())
	if err := ctx.Err(); err != nil {
		metrics.PatchMetricsCollector.IncWaiterCycles("canceled")
		return err
	}
	metrics.PatchMetricsCollector.IncWaiterCycles("failure")
	return ErrComponentsUnavailable
}

// awaitSet races every query in the set against the per-query timeout and
// joins the results. Timeouts are logged only.
func (w *Waiter) awaitSet(ctx context.Context, attempt int) {
	var wg sync.WaitGroup
	for _, q := range w.opts.Queries {
		wg.Add(1)
		go func(q registry.Query) {
			defer wg.Done()
			if !w.awaitQuery(ctx, q) {
				w.log().Debug("component did not appear in time",
					slog.String("query", q.String()),
					slog.Int("attempt", attempt),
				)
				metrics.PatchMetricsCollector.IncWaiterQueryTimeouts(q.String())
			}
		}(q)
	}
	wg.Wait()
}

// awaitQuery registers a waiter with the host registry and races the
// callback against the per-query timeout. The registry exposes no
// cancellation handle; a late callback lands in the buffered channel and is
// dropped with it.
func (w *Waiter) awaitQuery(ctx context.Context, q registry.Query) bool {
	found := make(chan registry.Component, 1)
	w.reg.WaitFor(q, func(c registry.Component) {
		select {
		case found <- c:
		default:
		}
	})

	timer := time.NewTimer(w.opts.QueryTimeout)
	defer timer.Stop()

	select {
	case <-found:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
