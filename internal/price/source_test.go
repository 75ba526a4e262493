package price

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGeckoTriesCandidateIDs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		id := r.URL.Query().Get("ids")
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
		switch id {
		case "movement":
			w.Write([]byte(`{}`))
		case "move":
			w.WriteHeader(http.StatusTooManyRequests)
		case "move-token":
			w.Write([]byte(`{"move-token":{"usd":0.42}}`))
		default:
			t.Errorf("unexpected id %q", id)
		}
	}))
	defer srv.Close()

	src := NewCoinGecko(HTTPConfig{BaseURL: srv.URL}, nil, nil)
	price, err := src.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.42, price)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"movement", "move", "move-token"}, seen)
}

func TestCoinGeckoNoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"movement":{"usd":0}}`))
	}))
	defer srv.Close()

	_, err := NewCoinGecko(HTTPConfig{BaseURL: srv.URL}, []string{"movement"}, nil).Quote(context.Background())
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestDexScreenerPicksMostLiquidPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "MOVE", r.URL.Query().Get("q"))
		w.Write([]byte(`{"pairs":[
			{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"USDC"},"priceUsd":"0.0100","liquidity":{"usd":5000}},
			{"baseToken":{"symbol":"WETH"},"quoteToken":{"symbol":"USDC"},"priceUsd":"3000","liquidity":{"usd":9000000}},
			{"baseToken":{"symbol":"USDT"},"quoteToken":{"symbol":"move"},"priceUsd":"0.0123","liquidity":{"usd":80000}},
			{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"ETH"},"priceUsd":"0.0200"}
		]}`))
	}))
	defer srv.Close()

	price, err := NewDexScreener(HTTPConfig{BaseURL: srv.URL}, "").Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0123, price)
}

func TestDexScreenerNoMatchingPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"baseToken":{"symbol":"APT"},"quoteToken":{"symbol":"USDC"},"priceUsd":"8"}]}`))
	}))
	defer srv.Close()

	_, err := NewDexScreener(HTTPConfig{BaseURL: srv.URL}, "MOVE").Quote(context.Background())
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestCoinMarketCapWithoutKeySkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewCoinMarketCap(HTTPConfig{BaseURL: srv.URL}, "  ", "").Quote(context.Background())
	assert.True(t, errors.Is(err, ErrNoAPIKey))
	assert.False(t, called)
}

func TestCoinMarketCapQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-CMC_PRO_API_KEY"))
		assert.Equal(t, "MOVE", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"data":{"MOVE":{"quote":{"USD":{"price":0.61}}}}}`))
	}))
	defer srv.Close()

	price, err := NewCoinMarketCap(HTTPConfig{BaseURL: srv.URL}, "secret", "MOVE").Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.61, price)
}

func TestResolverUsesSecondarySource(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gecko.Close()
	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"USDC"},"priceUsd":"0.0123","liquidity":{"usd":1}}]}`))
	}))
	defer dex.Close()

	attempts := DefaultAttempts(Config{CoinGeckoURL: gecko.URL, DexScreenerURL: dex.URL}, nil)
	quote := NewResolver(attempts, nil).Resolve(context.Background())
	require.True(t, quote.Success)
	assert.Equal(t, 0.0123, *quote.Price)
	assert.Equal(t, "DexScreener", quote.Source)
}

func TestResolverRejectsNonFinitePrices(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"` + r.URL.Query().Get("ids") + `":{"usd":1e400}}`))
	}))
	defer gecko.Close()

	for _, priceUsd := range []string{"NaN", "Infinity", "-Inf"} {
		dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"pairs":[{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"USDC"},"priceUsd":"` + priceUsd + `","liquidity":{"usd":1000}}]}`))
		}))

		attempts := DefaultAttempts(Config{CoinGeckoURL: gecko.URL, DexScreenerURL: dex.URL}, nil)
		quote := NewResolver(attempts, nil).Resolve(context.Background())
		dex.Close()

		assert.False(t, quote.Success, priceUsd)
		assert.Nil(t, quote.Price, priceUsd)
		assert.Equal(t, FallbackSource, quote.Source, priceUsd)
		_, err := json.Marshal(quote)
		assert.NoError(t, err, priceUsd)
	}
}

func TestDexScreenerIgnoresNonFiniteLiquidity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[
			{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"USDC"},"priceUsd":"0.5","liquidity":{"usd":"NaN"}},
			{"baseToken":{"symbol":"MOVE"},"quoteToken":{"symbol":"ETH"},"priceUsd":"0.0123","liquidity":{"usd":2500}}
		]}`))
	}))
	defer srv.Close()

	price, err := NewDexScreener(HTTPConfig{BaseURL: srv.URL}, "MOVE").Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0123, price)
}
