// Package aggregate folds normalized claims into per-account reports.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rewardscope/internal/model"
)

const (
	DefaultDecimals     = 8
	DefaultRecentWindow = 10
)

// Options controls report construction.
type Options struct {
	// Decimals is the reward token's fixed precision.
	Decimals int32
	// RecentWindow is the number of latest claims listed in the summary.
	RecentWindow int
	// Now anchors the UTC day used for TodayClaimed.
	Now    func() time.Time
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Decimals <= 0 {
		o.Decimals = DefaultDecimals
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = DefaultRecentWindow
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Build aggregates claims, in ledger encounter order, into a report for
// account. Zero claims yield an empty report with an all-zero summary.
func Build(account string, claims []model.Claim, opts Options) model.Report {
	opts = opts.withDefaults()

	acc := NewAccumulator()
	history := make([]model.Claim, 0, len(claims))
	for _, claim := range claims {
		if err := acc.AddClaim(claim); err != nil {
			opts.Logger.Warn("skip claim", zap.String("address", account), zap.Error(err))
			continue
		}
		history = append(history, claim)
	}

	now := opts.Now()
	return model.Report{
		UserAddress:  account,
		TotalRewards: acc.TokenTotals(),
		ClaimHistory: history,
		Summary:      summarize(acc, history, opts, now),
		GeneratedAt:  now.UTC(),
	}
}

func summarize(acc *Accumulator, history []model.Claim, opts Options, now time.Time) model.Summary {
	total := scaleAmount(acc.Total(), opts.Decimals)

	average := decimal.Zero
	if acc.Count() > 0 {
		average = total.Div(decimal.NewFromInt(int64(acc.Count())))
	}

	today := decimal.Zero
	for _, claim := range history {
		tm, ok := claimTime(claim.Timestamp)
		if ok && sameUTCDay(tm, now) {
			today = today.Add(scaleAmount(claim.RewardAmountParsed, opts.Decimals))
		}
	}

	return model.Summary{
		TotalClaims:        acc.Count(),
		TotalMoveTokens:    total,
		AverageClaimAmount: average,
		PoolBreakdown:      acc.PoolBreakdown(opts.Decimals),
		RecentClaims:       recentClaims(history, opts),
		TodayClaimed:       today,
	}
}

// recentClaims returns the last RecentWindow claims, newest first.
func recentClaims(history []model.Claim, opts Options) []model.RecentClaim {
	start := len(history) - opts.RecentWindow
	if start < 0 {
		start = 0
	}

	out := make([]model.RecentClaim, 0, len(history)-start)
	for i := len(history) - 1; i >= start; i-- {
		claim := history[i]
		recent := model.RecentClaim{
			Claim:      claim,
			MoveAmount: scaleAmount(claim.RewardAmountParsed, opts.Decimals),
		}
		if tm, ok := claimTime(claim.Timestamp); ok {
			recent.Date = formatClaimDate(tm)
		}
		out = append(out, recent)
	}
	return out
}
