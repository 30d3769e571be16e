package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var PatchMetricsCollector patchMetrics = &patchMetricsNoop{}

type patchMetrics interface {
	// waiter
	IncWaiterAttempts()
	IncWaiterQueryTimeouts(query string)
	IncWaiterCycles(outcome string)
	ObserveWaiterCycleDuration(seconds float64)

	// monitor
	IncWatchdogFirings()
	IncForcedRefreshes()

	// media guard
	IncMediaSuppressed(call string)

	// startup optimizer
	IncFastPathHits(tag string)
	IncDebounceCoalesced()
}

// noop

type patchMetricsNoop struct{}

var _ patchMetrics = &patchMetricsNoop{}

func (p *patchMetricsNoop) IncWaiterAttempts()                      {}
func (p *patchMetricsNoop) IncWaiterQueryTimeouts(_ string)         {}
func (p *patchMetricsNoop) IncWaiterCycles(_ string)                {}
func (p *patchMetricsNoop) ObserveWaiterCycleDuration(_ float64)    {}
func (p *patchMetricsNoop) IncWatchdogFirings()                     {}
func (p *patchMetricsNoop) IncForcedRefreshes()                     {}
func (p *patchMetricsNoop) IncMediaSuppressed(_ string)             {}
func (p *patchMetricsNoop) IncFastPathHits(_ string)                {}
func (p *patchMetricsNoop) IncDebounceCoalesced()                   {}

// prom

type patchMetricsProm struct {
	waiterAttempts      prometheus.Counter
	waiterQueryTimeouts *prometheus.CounterVec
	waiterCycles        *prometheus.CounterVec
	waiterCycleDuration prometheus.Histogram

	watchdogFirings prometheus.Counter
	forcedRefreshes prometheus.Counter

	mediaSuppressed *prometheus.CounterVec

	fastPathHits      *prometheus.CounterVec
	debounceCoalesced prometheus.Counter
}

var _ patchMetrics = &patchMetricsProm{}

func InitPromMetrics(_ context.Context) {
	// Unregister default prometheus collectors so we don't collect a bunch of pointless metrics
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prometheus.Unregister(collectors.NewGoCollector())

	PatchMetricsCollector = &patchMetricsProm{
		waiterAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostpatch_waiter_attempts_total",
			Help: "Number of component-availability cycles started.",
		}),
		waiterQueryTimeouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostpatch_waiter_query_timeouts_total",
			Help: "Per-query timeouts while waiting for components, partitioned by query.",
		}, []string{"query"}),
		waiterCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostpatch_waiter_cycles_total",
			Help: "Completed waiter invocations, partitioned by outcome.",
		}, []string{"outcome"}),
		waiterCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hostpatch_waiter_cycle_duration_seconds",
			Help:    "Duration of full waiter invocations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		watchdogFirings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostpatch_monitor_watchdog_fired_total",
			Help: "Number of times the menu watchdog fired.",
		}),
		forcedRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostpatch_monitor_forced_refreshes_total",
			Help: "Number of synthetic resize events dispatched to the host.",
		}),
		mediaSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostpatch_media_suppressed_errors_total",
			Help: "Media-device errors suppressed by policy, partitioned by call.",
		}, []string{"call"}),
		fastPathHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hostpatch_sched_fastpath_hits_total",
			Help: "Zero-delay callbacks rescheduled on the fast path, partitioned by tag.",
		}, []string{"tag"}),
		debounceCoalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hostpatch_sched_debounce_coalesced_total",
			Help: "Init triggers coalesced by the debouncer.",
		}),
	}
}

func (p *patchMetricsProm) IncWaiterAttempts() {
	p.waiterAttempts.Inc()
}

func (p *patchMetricsProm) IncWaiterQueryTimeouts(query string) {
	p.waiterQueryTimeouts.WithLabelValues(query).Inc()
}

func (p *patchMetricsProm) IncWaiterCycles(outcome string) {
	p.waiterCycles.WithLabelValues(outcome).Inc()
}

func (p *patchMetricsProm) ObserveWaiterCycleDuration(seconds float64) {
	p.waiterCycleDuration.Observe(seconds)
}

func (p *patchMetricsProm) IncWatchdogFirings() {
	p.watchdogFirings.Inc()
}

func (p *patchMetricsProm) IncForcedRefreshes() {
	p.forcedRefreshes.Inc()
}

func (p *patchMetricsProm) IncMediaSuppressed(call string) {
	p.mediaSuppressed.WithLabelValues(call).Inc()
}

func (p *patchMetricsProm) IncFastPathHits(tag string) {
	p.fastPathHits.WithLabelValues(tag).Inc()
}

func (p *patchMetricsProm) IncDebounceCoalesced() {
	p.debounceCoalesced.Inc()
}
