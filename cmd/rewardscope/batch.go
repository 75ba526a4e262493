package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rewardscope/internal/config"
	"rewardscope/internal/ledger"
	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
	"rewardscope/internal/storage"
	"rewardscope/internal/storage/kafka"
	"rewardscope/internal/storage/postgres"
)

type batchOutput struct {
	RunID    string              `json:"run_id"`
	Results  []model.BatchResult `json:"results"`
	Rejected []string            `json:"rejected,omitempty"`
}

func runBatch(cmd *cobra.Command, _ []string) error {
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

	addresses, rejected, err := ledger.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	if len(rejected) > 0 {
		logger.Warn("skip invalid addresses", zap.Strings("addresses", rejected))
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
	logger.Info("batch start",
		zap.String("run_id", runID),
		zap.String("rpc", cfg.RPCURL),
		zap.Int("addresses", len(addresses)),
		zap.Int("rejected", len(rejected)),
		zap.Int("concurrency", cfg.Concurrency),
	)

	results := eng.ResolveRewardsBatch(ctx, addresses)
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	logger.Info("batch done", zap.String("run_id", runID), zap.Int("ok", len(results)-failed), zap.Int("failed", failed))

	if err := exportResults(ctx, cfg, runID, results, logger); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), batchOutput{RunID: runID, Results: results, Rejected: rejected})
}

// exportResults writes results to every configured sink.
func exportResults(ctx context.Context, cfg config.Config, runID string, results []model.BatchResult, logger *zap.Logger) error {
	var sinks storage.Multi

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
		if err != nil {
			return err
		}
		defer closeSink("kafka", publisher, logger)
		sinks = append(sinks, publisher)
	}

	if len(sinks) == 0 {
		return nil
	}

	logger.Info("export results",
		zap.String("run_id", runID),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.Int("results", len(results)),
	)
	if err := sinks.PutReports(ctx, runID, results); err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	return nil
}

type sinkCloser interface {
	Close() error
}

func closeSink(name string, sink sinkCloser, logger *zap.Logger) {
	if err := sink.Close(); err != nil {
		logger.Warn("close sink", zap.String("sink", name), zap.Error(err))
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
