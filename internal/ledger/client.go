package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
)

const maxErrorBody = 512

// FetchError reports a failed ledger page request.
type FetchError struct {
	Address    string
	Offset     int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch transactions %s at %d: status %d: %v", e.Address, e.Offset, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch transactions %s at %d: %v", e.Address, e.Offset, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageFetcher returns one page of an account's transaction history.
type PageFetcher interface {
	FetchPage(ctx context.Context, address string, offset, limit int) ([]model.Transaction, error)
}

// ClientConfig configures the HTTP ledger client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client queries the fullnode REST API for account transactions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a Client from the config.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("ledger base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse ledger url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// FetchPage performs a single GET for the page at offset. It never retries.
func (c *Client) FetchPage(ctx context.Context, address string, offset, limit int) ([]model.Transaction, error) {
	txs, err := c.fetchPage(ctx, address, offset, limit)
	if err != nil {
		metrics.PagesFetched.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues("ok").Inc()
	return txs, nil
}

func (c *Client) fetchPage(ctx context.Context, address string, offset, limit int) ([]model.Transaction, error) {
	fail := func(status int, err error) error {
		return &FetchError{Address: address, Offset: offset, StatusCode: status, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fail(0, err)
	}

	query := url.Values{}
	query.Set("start", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions?%s", c.baseURL, url.PathEscape(address), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fail(resp.StatusCode, fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))))
	}

	var txs []model.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode transactions: %w", err))
	}
	return txs, nil
}
