package price

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const dexScreenerURL = "https://api.dexscreener.com"

// DexScreener searches DEX pairs and prices the token from its most liquid
// pair.
type DexScreener struct {
	cfg    HTTPConfig
	symbol string
}

func NewDexScreener(cfg HTTPConfig, symbol string) *DexScreener {
	if symbol == "" {
		symbol = "MOVE"
	}
	return &DexScreener{cfg: cfg, symbol: symbol}
}

func (d *DexScreener) Name() string {
	return "DexScreener"
}

func (d *DexScreener) Quote(ctx context.Context) (float64, error) {
	query := url.Values{}
	query.Set("q", d.symbol)
	body, err := getJSON(ctx, d.cfg.client(), d.cfg.base(dexScreenerURL)+"/latest/dex/search?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}

	best, ok := bestPair(gjson.GetBytes(body, "pairs"), d.symbol)
	if !ok {
		return 0, ErrNoQuote
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(best.Get("priceUsd").String()), 64)
	if err != nil || !usable(price) {
		return 0, ErrNoQuote
	}
	return price, nil
}

// bestPair returns the pair with the highest USD liquidity among those that
// trade symbol on either side. Ties keep the earlier pair.
func bestPair(pairs gjson.Result, symbol string) (gjson.Result, bool) {
	var (
		best      gjson.Result
		bestScore float64
		found     bool
	)
	pairs.ForEach(func(_, pair gjson.Result) bool {
		base := pair.Get("baseToken.symbol").String()
		quote := pair.Get("quoteToken.symbol").String()
		if !strings.EqualFold(base, symbol) && !strings.EqualFold(quote, symbol) {
			return true
		}
		score := liquidity(pair.Get("liquidity.usd"))
		if !found || score > bestScore {
			best, bestScore, found = pair, score, true
		}
		return true
	})
	return best, found
}

// liquidity maps missing, malformed and non-finite values to 0.
func liquidity(value gjson.Result) float64 {
	var f float64
	switch value.Type {
	case gjson.Number:
		f = value.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
