package price

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const coinGeckoURL = "https://api.coingecko.com/api/v3"

// DefaultCoinGeckoIDs are the listing ids tried for MOVE, in order.
var DefaultCoinGeckoIDs = []string{"movement", "move", "move-token", "movement-network"}

// CoinGecko queries the simple/price endpoint across candidate listing ids.
type CoinGecko struct {
	cfg    HTTPConfig
	ids    []string
	logger *zap.Logger
}

func NewCoinGecko(cfg HTTPConfig, ids []string, logger *zap.Logger) *CoinGecko {
	if len(ids) == 0 {
		ids = DefaultCoinGeckoIDs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoinGecko{cfg: cfg, ids: ids, logger: logger}
}

func (c *CoinGecko) Name() string {
	return "CoinGecko"
}

// Quote returns the USD price of the first id that has one.
func (c *CoinGecko) Quote(ctx context.Context) (float64, error) {
	client := c.cfg.client()
	base := c.cfg.base(coinGeckoURL)

	var lastErr error
	for _, id := range c.ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		query := url.Values{}
		query.Set("ids", id)
		query.Set("vs_currencies", "usd")
		body, err := getJSON(ctx, client, base+"/simple/price?"+query.Encode(), nil)
		if err != nil {
			c.logger.Debug("coingecko id failed", zap.String("id", id), zap.Error(err))
			lastErr = err
			continue
		}

		usd := gjson.GetBytes(body, gjson.Escape(id)+".usd")
		if usd.Type == gjson.Number && usable(usd.Float()) {
			c.logger.Debug("coingecko price found", zap.String("id", id))
			return usd.Float(), nil
		}
	}

	if lastErr != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoQuote, lastErr)
	}
	return 0, ErrNoQuote
}
