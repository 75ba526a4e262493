// Package metrics holds the Prometheus collectors shared by the ledger,
// claims, price and engine packages.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "rewardscope"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "pages_fetched_total",
			Help:      "Ledger transaction pages requested, by outcome.",
		},
		[]string{"status"},
	)

	TransactionsCollected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_collected_total",
			Help:      "Transactions returned by the collector.",
		},
	)

	CollectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "collect_duration_seconds",
			Help:      "Time spent paginating one account's history.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	ClaimsNormalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "normalized_total",
			Help:      "Claim events normalized into claims.",
		},
	)

	ClaimsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "dropped_total",
			Help:      "Claim events discarded during normalization, by reason.",
		},
		[]string{"reason"},
	)

	PriceAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "attempts_total",
			Help:      "Price source attempts, by source and outcome.",
		},
		[]string{"source", "status"},
	)

	AccountsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "accounts_resolved_total",
			Help:      "Accounts resolved, by outcome (ok, partial, failed).",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		PagesFetched,
		TransactionsCollected,
		CollectDuration,
		ClaimsNormalized,
		ClaimsDropped,
		PriceAttempts,
		AccountsResolved,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}()
}
