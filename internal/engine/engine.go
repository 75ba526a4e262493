// Package engine wires collection, extraction, normalization and aggregation
// into per-account reward reports.
package engine

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rewardscope/internal/aggregate"
	"rewardscope/internal/claims"
	"rewardscope/internal/ledger"
	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
	"rewardscope/internal/price"
)

// Collector gathers an account's transaction history.
type Collector interface {
	Collect(ctx context.Context, address string) ledger.Collection
}

// PriceResolver produces a quote and never fails.
type PriceResolver interface {
	Resolve(ctx context.Context) model.PriceQuote
}

type Engine struct {
	collector  Collector
	normalizer *claims.Normalizer
	prices     PriceResolver
	cfg        Config
	logger     *zap.Logger
}

func New(collector Collector, prices PriceResolver, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prices == nil {
		prices = price.NewResolver(nil, logger)
	}
	cfg = cfg.withDefaults()
	if cfg.Aggregate.Logger == nil {
		cfg.Aggregate.Logger = logger
	}
	return &Engine{
		collector:  collector,
		normalizer: claims.NewNormalizer(logger),
		prices:     prices,
		cfg:        cfg,
		logger:     logger,
	}
}

// ResolveRewards builds the report for one account. A fetch failure marks
// the report partial instead of failing it.
func (e *Engine) ResolveRewards(ctx context.Context, address string) model.Report {
	report, _ := e.resolve(ctx, address)
	return report
}

func (e *Engine) resolve(ctx context.Context, address string) (model.Report, ledger.Collection) {
	collection := e.collector.Collect(ctx, address)
	events := claims.Extract(collection.Transactions, e.cfg.EventType)
	normalized := e.normalizer.NormalizeAll(events, address)

	report := aggregate.Build(address, normalized, e.cfg.Aggregate)
	report.TransactionsScanned = len(collection.Transactions)
	if collection.Partial() {
		report.Partial = true
		report.FetchError = collection.Err.Error()
	}

	e.logger.Info("report built",
		zap.String("address", address),
		zap.Int("transactions", report.TransactionsScanned),
		zap.Int("events", len(events)),
		zap.Int("claims", report.Summary.TotalClaims),
		zap.Bool("partial", report.Partial),
	)
	return report, collection
}

// ResolveRewardsBatch resolves every address with bounded concurrency. The
// result has one entry per address in input order; one account failing
// never affects the others.
func (e *Engine) ResolveRewardsBatch(ctx context.Context, addresses []string) []model.BatchResult {
	results := make([]model.BatchResult, len(addresses))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, address := range addresses {
		i, address := i, address
		if err := ctx.Err(); err != nil {
			results[i] = failed(address, err)
			continue
		}
		g.Go(func() error {
			results[i] = e.resolveOne(ctx, address)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Engine) resolveOne(ctx context.Context, address string) model.BatchResult {
	if err := ctx.Err(); err != nil {
		return failed(address, err)
	}

	report, collection := e.resolve(ctx, address)
	if collection.Err != nil && len(collection.Transactions) == 0 {
		e.logger.Warn("account failed", zap.String("address", address), zap.Error(collection.Err))
		return failed(address, collection.Err)
	}

	status := "ok"
	if report.Partial {
		status = "partial"
	}
	metrics.AccountsResolved.WithLabelValues(status).Inc()
	return model.BatchResult{Address: address, Success: true, Data: &report}
}

func failed(address string, err error) model.BatchResult {
	metrics.AccountsResolved.WithLabelValues("failed").Inc()
	return model.BatchResult{Address: address, Success: false, Error: err.Error()}
}

// ResolvePrice returns the current reward token quote.
func (e *Engine) ResolvePrice(ctx context.Context) model.PriceQuote {
	return e.prices.Resolve(ctx)
}
