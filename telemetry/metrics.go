// Package telemetry provides Prometheus metrics, correlation-id aware
// logging helpers, and OpenTelemetry tracing setup.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesSeen         prometheus.Counter
	DedupDropped         prometheus.Counter
	CommandsDispatched   *prometheus.CounterVec
	ContributionsCreated prometheus.Counter
	ConflictsDetected    *prometheus.CounterVec
	RateLimited          prometheus.Counter
	StoreErrors          prometheus.Counter

	// Histograms (seconds)
	DispatchDuration prometheus.Observer

	// Gauges
	PendingGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "contrib_chat_messages_total", Help: "Number of chat messages observed by the bot"})
		DedupDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "contrib_dedup_dropped_total", Help: "Number of redelivered chat messages dropped by the dedup guard"})
		CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{Name: "contrib_commands_total", Help: "Number of commands executed, by handler"}, []string{"handler"})
		ContributionsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "contrib_contributions_created_total", Help: "Number of contributions stored"})
		ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{Name: "contrib_conflicts_total", Help: "Number of submissions rejected, by conflict kind"}, []string{"kind"})
		RateLimited = promauto.NewCounter(prometheus.CounterOpts{Name: "contrib_rate_limited_total", Help: "Number of submissions dropped by the rate limiter"})
		StoreErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "contrib_store_errors_total", Help: "Number of persistence gateway failures"})
		DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "contrib_dispatch_duration_seconds", Help: "Command dispatch duration seconds", Buckets: prometheus.DefBuckets})
		PendingGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "contrib_pending", Help: "Current number of pending contributions"})
	})
}

// CountMessage increments the observed chat message counter.
func CountMessage() {
	if MessagesSeen != nil {
		MessagesSeen.Inc()
	}
}

// CountDedupDropped increments the redelivery drop counter.
func CountDedupDropped() {
	if DedupDropped != nil {
		DedupDropped.Inc()
	}
}

// CountCreated increments the stored contribution counter.
func CountCreated() {
	if ContributionsCreated != nil {
		ContributionsCreated.Inc()
	}
}

// CountRateLimited increments the rate limiter drop counter.
func CountRateLimited() {
	if RateLimited != nil {
		RateLimited.Inc()
	}
}

// CountCommand increments the per-handler dispatch counter.
func CountCommand(handler string) {
	if CommandsDispatched != nil {
		CommandsDispatched.WithLabelValues(handler).Inc()
	}
}

// CountConflict increments the conflict counter for a kind
// (personal_duplicate, accepted_duplicate, line_conflict).
func CountConflict(kind string) {
	if ConflictsDetected != nil {
		ConflictsDetected.WithLabelValues(kind).Inc()
	}
}

// CountStoreError increments the persistence failure counter.
func CountStoreError() {
	if StoreErrors != nil {
		StoreErrors.Inc()
	}
}

// SetPending records the current pending contribution count.
func SetPending(n int) {
	if PendingGauge != nil {
		PendingGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
