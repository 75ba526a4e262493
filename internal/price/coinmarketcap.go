package price

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const coinMarketCapURL = "https://pro-api.coinmarketcap.com"

// ErrNoAPIKey marks a source that needs credentials it was not given.
var ErrNoAPIKey = errors.New("api key not configured")

// CoinMarketCap queries the quotes/latest endpoint by symbol.
type CoinMarketCap struct {
	cfg    HTTPConfig
	apiKey string
	symbol string
}

func NewCoinMarketCap(cfg HTTPConfig, apiKey, symbol string) *CoinMarketCap {
	if symbol == "" {
		symbol = "MOVE"
	}
	return &CoinMarketCap{cfg: cfg, apiKey: strings.TrimSpace(apiKey), symbol: symbol}
}

func (c *CoinMarketCap) Name() string {
	return "CoinMarketCap"
}

func (c *CoinMarketCap) Quote(ctx context.Context) (float64, error) {
	if c.apiKey == "" {
		return 0, ErrNoAPIKey
	}

	query := url.Values{}
	query.Set("symbol", c.symbol)
	header := http.Header{}
	header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	body, err := getJSON(ctx, c.cfg.client(), c.cfg.base(coinMarketCapURL)+"/v1/cryptocurrency/quotes/latest?"+query.Encode(), header)
	if err != nil {
		return 0, err
	}

	// data is keyed by symbol; v2 of the API wraps the entry in a list.
	entry := gjson.GetBytes(body, "data."+gjson.Escape(c.symbol))
	if entry.IsArray() {
		entry = entry.Get("0")
	}
	usd := entry.Get("quote.USD.price")
	if usd.Type != gjson.Number || !usable(usd.Float()) {
		return 0, ErrNoQuote
	}
	return usd.Float(), nil
}
