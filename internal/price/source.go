// Package price resolves a market price for the reward token from an
// ordered list of independent sources.
package price

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20

// ErrNoQuote is returned by a source that answered without a usable price.
var ErrNoQuote = errors.New("no usable quote")

// Source quotes the reward token in USD.
type Source interface {
	Name() string
	Quote(ctx context.Context) (float64, error)
}

// Attempt is one step of the resolution policy.
type Attempt struct {
	Source  Source
	Timeout time.Duration
}

// Config selects endpoints and credentials for DefaultAttempts. Empty URLs
// use the public APIs.
type Config struct {
	Symbol           string
	CoinGeckoURL     string
	CoinGeckoIDs     []string
	DexScreenerURL   string
	CoinMarketCapURL string
	CoinMarketCapKey string
	Timeout          time.Duration
	HTTPClient       *http.Client
}

// HTTPConfig holds the shared HTTP settings of the sources.
type HTTPConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c HTTPConfig) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c HTTPConfig) base(fallback string) string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = fallback
	}
	return strings.TrimRight(base, "/")
}

// usable reports whether price is a finite positive number.
func usable(price float64) bool {
	return price > 0 && !math.IsInf(price, 0)
}

// getJSON performs a GET and returns the body of a 2xx response.
func getJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
