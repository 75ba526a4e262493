package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rewardscope/internal/engine"
	"rewardscope/internal/ledger"
)

const envPrefix = "REWARDSCOPE"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	Addresses       []string
	EventType       string
	PageSize        int
	MaxTransactions int
	MaxRetries      int
	RetryBackoff    time.Duration
	RPS             float64
	Burst           int
	HTTPTimeout     time.Duration
	Concurrency     int

	Out          string
	PGDSN        string
	KafkaBrokers []string
	KafkaTopic   string
	MetricsAddr  string

	LogLevel  string
	LogFile   string
	WithPrice bool
	Price     PriceConfig
}

// PriceConfig selects price endpoints and credentials.
type PriceConfig struct {
	Symbol           string
	CoinGeckoURL     string
	CoinGeckoIDs     []string
	DexScreenerURL   string
	CoinMarketCapURL string
	CoinMarketCapKey string
	Timeout          time.Duration
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		Addresses:       getStringSlice(v, "address"),
		EventType:       v.GetString("event-type"),
		PageSize:        v.GetInt("page-size"),
		MaxTransactions: v.GetInt("max-transactions"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		RPS:             v.GetFloat64("rps"),
		Burst:           v.GetInt("burst"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		Concurrency:     v.GetInt("concurrency"),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
		KafkaBrokers:    getStringSlice(v, "kafka-brokers"),
		KafkaTopic:      v.GetString("kafka-topic"),
		MetricsAddr:     v.GetString("metrics-addr"),
		LogLevel:        v.GetString("log-level"),
		LogFile:         v.GetString("log-file"),
		WithPrice:       v.GetBool("with-price"),
		Price:           priceConfig(v),
	}

	if cfg.PageSize <= 0 || cfg.MaxTransactions <= 0 {
		return Config{}, fmt.Errorf("page-size and max-transactions must be positive")
	}
	if cfg.Concurrency <= 0 {
		return Config{}, fmt.Errorf("concurrency must be positive")
	}
	return cfg, nil
}

// LoadPrice loads only the settings used by the price command.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, string, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PriceConfig{}, "", err
	}
	return priceConfig(v), v.GetString("log-level"), nil
}

func priceConfig(v *viper.Viper) PriceConfig {
	return PriceConfig{
		Symbol:           v.GetString("price-symbol"),
		CoinGeckoURL:     v.GetString("coingecko-url"),
		CoinGeckoIDs:     getStringSlice(v, "coingecko-ids"),
		DexScreenerURL:   v.GetString("dexscreener-url"),
		CoinMarketCapURL: v.GetString("coinmarketcap-url"),
		CoinMarketCapKey: v.GetString("coinmarketcap-key"),
		Timeout:          v.GetDuration("price-timeout"),
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc", engine.DefaultRPCURL)
	v.SetDefault("event-type", engine.DefaultEventType)
	v.SetDefault("page-size", ledger.DefaultPageSize)
	v.SetDefault("max-transactions", ledger.DefaultMaxTransactions)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("rps", 5.0)
	v.SetDefault("burst", 1)
	v.SetDefault("http-timeout", 15*time.Second)
	v.SetDefault("concurrency", engine.DefaultConcurrency)
	v.SetDefault("kafka-topic", "reward-reports")
	v.SetDefault("log-level", "info")
	v.SetDefault("price-symbol", "MOVE")
	v.SetDefault("price-timeout", 10*time.Second)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		// A single flag value may itself be comma separated.
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
