package aggregate

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// isoMillis matches the millisecond ISO-8601 form used for claim dates.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// scaleAmount divides a raw integer amount by 10^decimals without rounding.
func scaleAmount(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// claimTime converts a ledger timestamp in microseconds to UTC time.
func claimTime(timestamp string) (time.Time, bool) {
	micros, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil || micros < 0 {
		return time.Time{}, false
	}
	return time.UnixMicro(micros).UTC(), true
}

func formatClaimDate(tm time.Time) string {
	return tm.Truncate(time.Millisecond).Format(isoMillis)
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
