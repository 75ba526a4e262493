package aggregate

import (
	"fmt"
	"math/big"

	"rewardscope/internal/model"
)

type poolTotal struct {
	count uint64
	total *big.Int
}

// Accumulator holds running totals for one account's claims. Tokens and
// pools keep first-seen order.
type Accumulator struct {
	tokens      []string
	tokenTotals map[string]*big.Int
	pools       []string
	poolTotals  map[string]*poolTotal
	total       *big.Int
	count       int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		tokenTotals: make(map[string]*big.Int),
		poolTotals:  make(map[string]*poolTotal),
		total:       big.NewInt(0),
	}
}

// AddClaim folds one claim into the totals.
func (a *Accumulator) AddClaim(claim model.Claim) error {
	amount := claim.RewardAmountParsed
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("claim %s: non-positive amount", claim.TransactionHash)
	}
	if claim.RewardToken == "" {
		return fmt.Errorf("claim %s: empty reward token", claim.TransactionHash)
	}

	tokenTotal, ok := a.tokenTotals[claim.RewardToken]
	if !ok {
		tokenTotal = big.NewInt(0)
		a.tokenTotals[claim.RewardToken] = tokenTotal
		a.tokens = append(a.tokens, claim.RewardToken)
	}
	tokenTotal.Add(tokenTotal, amount)

	pool := claim.PoolAddress
	if pool == "" {
		pool = model.Unknown
	}
	stats, ok := a.poolTotals[pool]
	if !ok {
		stats = &poolTotal{total: big.NewInt(0)}
		a.poolTotals[pool] = stats
		a.pools = append(a.pools, pool)
	}
	stats.count++
	stats.total.Add(stats.total, amount)

	a.total.Add(a.total, amount)
	a.count++
	return nil
}

// Count is the number of claims folded so far.
func (a *Accumulator) Count() int {
	return a.count
}

// Total is the raw amount summed across every token.
func (a *Accumulator) Total() *big.Int {
	return new(big.Int).Set(a.total)
}

// TokenTotals returns a copy of the per-token totals in first-seen order.
func (a *Accumulator) TokenTotals() []model.TokenTotal {
	out := make([]model.TokenTotal, 0, len(a.tokens))
	for _, token := range a.tokens {
		out = append(out, model.TokenTotal{Token: token, Raw: new(big.Int).Set(a.tokenTotals[token])})
	}
	return out
}

// PoolBreakdown returns per-pool counts and totals scaled by decimals.
func (a *Accumulator) PoolBreakdown(decimals int32) []model.PoolStats {
	out := make([]model.PoolStats, 0, len(a.pools))
	for _, pool := range a.pools {
		stats := a.poolTotals[pool]
		out = append(out, model.PoolStats{
			Pool:      pool,
			Count:     stats.count,
			Total:     new(big.Int).Set(stats.total),
			TotalMove: scaleAmount(stats.total, decimals),
		})
	}
	return out
}
