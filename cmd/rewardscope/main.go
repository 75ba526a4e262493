package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "rewardscope",
		Short:        "Movement reward claim reports",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Build the reward report for one account",
		RunE:  runReport,
	}
	reportCmd.Flags().String("address", "", "account address (0x + 64 hex)")
	addLedgerFlags(reportCmd.Flags())
	addSinkFlags(reportCmd.Flags())
	addPriceFlags(reportCmd.Flags())
	reportCmd.Flags().Bool("with-price", false, "attach the current MOVE price")
	root.AddCommand(reportCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Build reward reports for many accounts",
		RunE:  runBatch,
	}
	batchCmd.Flags().StringSlice("address", nil, "account addresses (comma-separated)")
	batchCmd.Flags().Int("concurrency", 4, "accounts resolved in parallel")
	addLedgerFlags(batchCmd.Flags())
	addSinkFlags(batchCmd.Flags())
	root.AddCommand(batchCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Resolve the current MOVE price",
		RunE:  runPrice,
	}
	addPriceFlags(priceCmd.Flags())
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLedgerFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "Movement fullnode REST URL")
	fs.String("event-type", "", "claim event type")
	fs.Int("page-size", 100, "transactions per page")
	fs.Int("max-transactions", 2000, "maximum transactions scanned per account")
	fs.Int("max-retries", 2, "retries per failed page")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.Float64("rps", 5, "ledger requests per second")
	fs.Int("burst", 1, "ledger request burst")
	fs.Duration("http-timeout", 15*time.Second, "ledger request timeout")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "rotate logs into this file instead of stderr")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
}

func addSinkFlags(fs *pflag.FlagSet) {
	fs.String("out", "", "append results to this JSONL file")
	fs.String("pg-dsn", "", "Postgres DSN for report snapshots")
	fs.StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	fs.String("kafka-topic", "reward-reports", "Kafka topic for reports")
}

func addPriceFlags(fs *pflag.FlagSet) {
	fs.String("price-symbol", "MOVE", "token symbol for DEX and CMC lookups")
	fs.StringSlice("coingecko-ids", nil, "CoinGecko ids tried in order")
	fs.String("coingecko-url", "", "CoinGecko API base URL")
	fs.String("dexscreener-url", "", "DexScreener API base URL")
	fs.String("coinmarketcap-url", "", "CoinMarketCap API base URL")
	fs.String("coinmarketcap-key", "", "CoinMarketCap API key")
	fs.Duration("price-timeout", 10*time.Second, "timeout per price source")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), writer, cfg.Level)
	return zap.New(core, zap.AddCaller()), nil
}
