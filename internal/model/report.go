package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// TokenTotal is the summed raw amount for one reward token.
type TokenTotal struct {
	Token string   `json:"token"`
	Raw   *big.Int `json:"raw"`
}

// PoolStats is the running claim count and total for one pool.
type PoolStats struct {
	Pool      string          `json:"pool"`
	Count     uint64          `json:"count"`
	Total     *big.Int        `json:"total"`
	TotalMove decimal.Decimal `json:"total_move"`
}

// RecentClaim is a claim annotated for display.
type RecentClaim struct {
	Claim
	MoveAmount decimal.Decimal `json:"move_amount"`
	Date       string          `json:"date"`
}

// Summary holds the statistics block of a report.
type Summary struct {
	TotalClaims        int             `json:"total_claims"`
	TotalMoveTokens    decimal.Decimal `json:"total_move_tokens"`
	AverageClaimAmount decimal.Decimal `json:"average_claim_amount"`
	PoolBreakdown      []PoolStats     `json:"pool_breakdown"`
	RecentClaims       []RecentClaim   `json:"recent_claims"`
	TodayClaimed       decimal.Decimal `json:"today_claimed"`
}

// Report is the per-account aggregation result.
type Report struct {
	UserAddress         string       `json:"user_address"`
	TotalRewards        []TokenTotal `json:"total_rewards"`
	ClaimHistory        []Claim      `json:"claim_history"`
	Summary             Summary      `json:"summary"`
	TransactionsScanned int          `json:"transactions_scanned"`
	Partial             bool         `json:"partial"`
	FetchError          string       `json:"fetch_error,omitempty"`
	GeneratedAt         time.Time    `json:"generated_at"`
}

// TotalFor returns the raw total for a token, or nil when it was never seen.
func (r Report) TotalFor(token string) *big.Int {
	for _, total := range r.TotalRewards {
		if total.Token == token {
			return total.Raw
		}
	}
	return nil
}

// BatchResult is one entry of a multi-account resolution.
type BatchResult struct {
	Address string  `json:"address"`
	Success bool    `json:"success"`
	Data    *Report `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
}
