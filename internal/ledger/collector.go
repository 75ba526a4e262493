package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
)

// Collection is the outcome of paginating one account. Err is set when
// pagination stopped early; Transactions still holds every page fetched
// before the failure.
type Collection struct {
	Transactions []model.Transaction
	Pages        int
	Err          error
}

// Partial reports whether pagination stopped on a failure.
func (c Collection) Partial() bool {
	return c.Err != nil
}

// Collector drives a PageFetcher across an account's history.
type Collector struct {
	fetcher PageFetcher
	policy  PagePolicy
	retry   RetryPolicy
	logger  *zap.Logger
}

// NewCollector builds a Collector. Invalid page policies fall back to the
// default policy.
func NewCollector(fetcher PageFetcher, policy PagePolicy, retry RetryPolicy, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := policy.Validate(); err != nil {
		logger.Warn("invalid page policy, using default", zap.Error(err))
		policy = DefaultPagePolicy()
	}
	return &Collector{
		fetcher: fetcher,
		policy:  policy,
		retry:   retry,
		logger:  logger,
	}
}

// Collect fetches pages sequentially from offset 0 until the history ends,
// the cap is reached, or a page fails. It never returns an error directly.
func (c *Collector) Collect(ctx context.Context, address string) Collection {
	var out Collection
	if c.fetcher == nil {
		out.Err = fmt.Errorf("page fetcher is nil")
		return out
	}

	start := time.Now()
	defer func() {
		metrics.CollectDuration.Observe(time.Since(start).Seconds())
		metrics.TransactionsCollected.Add(float64(len(out.Transactions)))
	}()

	logger := c.logger.With(zap.String("address", address))
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			out.Err = err
			logger.Info("collection cancelled", zap.Int("offset", offset), zap.Int("transactions", len(out.Transactions)))
			return out
		}

		limit := c.policy.Limit(offset)
		page, err := c.fetchWithRetry(ctx, address, offset, limit)
		if err != nil {
			out.Err = err
			logger.Warn("stop pagination on fetch error",
				zap.Int("offset", offset),
				zap.Int("transactions", len(out.Transactions)),
				zap.Error(err),
			)
			return out
		}

		out.Pages++
		out.Transactions = append(out.Transactions, page...)
		logger.Debug("page fetched", zap.Int("offset", offset), zap.Int("count", len(page)))

		next, more := c.policy.Next(offset, len(page))
		if !more {
			break
		}
		offset = next
	}

	logger.Info("collection complete", zap.Int("pages", out.Pages), zap.Int("transactions", len(out.Transactions)))
	return out
}

func (c *Collector) fetchWithRetry(ctx context.Context, address string, offset, limit int) ([]model.Transaction, error) {
	var page []model.Transaction
	err := c.retry.do(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.fetcher.FetchPage(ctx, address, offset, limit)
		if err != nil {
			c.logger.Debug("fetch page failed", zap.String("address", address), zap.Int("offset", offset), zap.Error(err))
		}
		return err
	})
	return page, err
}
