package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rewardscope/internal/aggregate"
	"rewardscope/internal/config"
	"rewardscope/internal/engine"
	"rewardscope/internal/ledger"
	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
	"rewardscope/internal/price"
)

type reportOutput struct {
	RunID string `json:"run_id"`
	model.BatchResult
	Price *model.PriceQuote `json:"price,omitempty"`
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Addresses) != 1 {
		return fmt.Errorf("exactly one address is required")
	}
	address, err := ledger.ParseAddress(cfg.Addresses[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.Info("report start",
		zap.String("run_id", runID),
		zap.String("rpc", cfg.RPCURL),
		zap.String("address", address),
		zap.Int("max_transactions", cfg.MaxTransactions),
	)

	out := buildReport(ctx, eng, runID, address, cfg.WithPrice)
	if !out.Success {
		logger.Warn("report failed", zap.String("address", address), zap.String("error", out.Error))
	}

	if err := exportResults(ctx, cfg, runID, []model.BatchResult{out.BatchResult}, logger); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

// buildReport resolves one account with the same success rule as a batch
// entry, so a ledger outage is exported as a failure.
func buildReport(ctx context.Context, eng *engine.Engine, runID, address string, withPrice bool) reportOutput {
	out := reportOutput{RunID: runID, BatchResult: eng.ResolveRewardsBatch(ctx, []string{address})[0]}
	if withPrice {
		quote := eng.ResolvePrice(ctx)
		out.Price = &quote
	}
	return out
}

func newEngine(cfg config.Config, logger *zap.Logger) (*engine.Engine, error) {
	client, err := ledger.NewClient(ledger.ClientConfig{
		BaseURL:           cfg.RPCURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RPS,
		Burst:             cfg.Burst,
	})
	if err != nil {
		return nil, err
	}

	collector := ledger.NewCollector(client,
		ledger.PagePolicy{PageSize: cfg.PageSize, MaxTransactions: cfg.MaxTransactions},
		ledger.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		logger,
	)

	return engine.New(collector, newResolver(cfg.Price, logger), engine.Config{
		EventType:   cfg.EventType,
		Concurrency: cfg.Concurrency,
		Aggregate:   aggregate.Options{Logger: logger},
	}, logger), nil
}

func newResolver(cfg config.PriceConfig, logger *zap.Logger) *price.Resolver {
	return price.NewResolver(price.DefaultAttempts(price.Config{
		Symbol:           cfg.Symbol,
		CoinGeckoURL:     cfg.CoinGeckoURL,
		CoinGeckoIDs:     cfg.CoinGeckoIDs,
		DexScreenerURL:   cfg.DexScreenerURL,
		CoinMarketCapURL: cfg.CoinMarketCapURL,
		CoinMarketCapKey: cfg.CoinMarketCapKey,
		Timeout:          cfg.Timeout,
	}, logger), logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
