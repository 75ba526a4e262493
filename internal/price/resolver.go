package price

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
)

const (
	// FallbackSource tags the quote returned when every source failed.
	FallbackSource = "Fallback"
	// ErrAllSourcesFailed is the message carried by the fallback quote.
	ErrAllSourcesFailed = "could not fetch real-time price from any source"

	defaultAttemptTimeout = 10 * time.Second
)

// Resolver walks its attempts in order and returns the first positive quote.
type Resolver struct {
	attempts []Attempt
	logger   *zap.Logger
	now      func() time.Time
}

func NewResolver(attempts []Attempt, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{attempts: attempts, logger: logger, now: time.Now}
}

// Resolve never fails; exhaustion is reported through the quote itself.
func (r *Resolver) Resolve(ctx context.Context) model.PriceQuote {
	for _, attempt := range r.attempts {
		if attempt.Source == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		name := attempt.Source.Name()
		price, err := r.try(ctx, attempt)
		if err != nil {
			status := "error"
			if errors.Is(err, ErrNoAPIKey) {
				status = "skipped"
			}
			metrics.PriceAttempts.WithLabelValues(name, status).Inc()
			r.logger.Warn("price source unavailable", zap.String("source", name), zap.Error(err))
			continue
		}

		metrics.PriceAttempts.WithLabelValues(name, "ok").Inc()
		r.logger.Debug("price resolved", zap.String("source", name), zap.Float64("price", price))
		return model.PriceQuote{
			Price:     &price,
			Source:    name,
			Timestamp: r.now().UTC(),
			Success:   true,
		}
	}

	return model.PriceQuote{
		Source:    FallbackSource,
		Timestamp: r.now().UTC(),
		Success:   false,
		Error:     ErrAllSourcesFailed,
	}
}

func (r *Resolver) try(ctx context.Context, attempt Attempt) (float64, error) {
	timeout := attempt.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	price, err := attempt.Source.Quote(attemptCtx)
	if err != nil {
		return 0, err
	}
	if !usable(price) {
		return 0, ErrNoQuote
	}
	return price, nil
}

// DefaultAttempts builds the standard order: CoinGecko, DexScreener, then
// CoinMarketCap when a key is set.
func DefaultAttempts(cfg Config, logger *zap.Logger) []Attempt {
	httpCfg := func(base string) HTTPConfig {
		return HTTPConfig{BaseURL: base, HTTPClient: cfg.HTTPClient}
	}
	return []Attempt{
		{Source: NewCoinGecko(httpCfg(cfg.CoinGeckoURL), cfg.CoinGeckoIDs, logger), Timeout: cfg.Timeout},
		{Source: NewDexScreener(httpCfg(cfg.DexScreenerURL), cfg.Symbol), Timeout: cfg.Timeout},
		{Source: NewCoinMarketCap(httpCfg(cfg.CoinMarketCapURL), cfg.CoinMarketCapKey, cfg.Symbol), Timeout: cfg.Timeout},
	}
}
