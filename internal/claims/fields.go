package claims

import (
	"math/big"
	"strings"

	"github.com/tidwall/gjson"
)

// fieldRule lists the payload keys a logical field has used across event
// schema versions, in precedence order.
type fieldRule struct {
	name       string
	candidates []string
}

var (
	claimantField = fieldRule{name: "claimant", candidates: []string{"user", "claimer", "account"}}
	tokenField    = fieldRule{name: "reward_token", candidates: []string{"reward_token", "token", "reward_type"}}
	amountField   = fieldRule{name: "reward_amount", candidates: []string{"reward_amount", "amount", "value"}}
	poolField     = fieldRule{name: "pool", candidates: []string{"pool_address", "pool"}}
)

// resolve returns the first present candidate of payload.
func (r fieldRule) resolve(payload gjson.Result) (gjson.Result, bool) {
	for _, key := range r.candidates {
		value := payload.Get(gjson.Escape(key))
		if present(value) {
			return value, true
		}
	}
	return gjson.Result{}, false
}

// present treats missing, null, false, zero and empty-string values as absent.
func present(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return value.Str != ""
	case gjson.Number:
		return value.Num != 0 || strings.Trim(value.Raw, "-+0.eE") != ""
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

// unwrapInner resolves the {"inner": "0x..."} object form of a token
// identifier to its inner value.
func unwrapInner(value gjson.Result) gjson.Result {
	if value.IsObject() {
		inner := value.Get("inner")
		if present(inner) {
			return inner
		}
	}
	return value
}

// tokenString renders a resolved token value; objects without an inner field
// do not identify a token.
func tokenString(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		return value.Str
	case gjson.Number, gjson.True:
		return value.Raw
	default:
		return ""
	}
}

// coerceAmount converts a resolved amount to an integer. Numbers are
// truncated toward zero; strings contribute their leading integer prefix
// (decimal, or hexadecimal after 0x). Anything else is zero.
func coerceAmount(value gjson.Result) *big.Int {
	switch value.Type {
	case gjson.Number:
		if n, ok := new(big.Int).SetString(value.Raw, 10); ok {
			return n
		}
		f, ok := new(big.Float).SetString(value.Raw)
		if !ok {
			return new(big.Int)
		}
		n, _ := f.Int(nil)
		return n
	case gjson.String:
		return parseIntPrefix(value.Str)
	default:
		return new(big.Int)
	}
}

func parseIntPrefix(input string) *big.Int {
	s := strings.TrimSpace(input)
	negative := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return new(big.Int)
	}

	n, ok := new(big.Int).SetString(s[:end], base)
	if !ok {
		return new(big.Int)
	}
	if negative {
		n.Neg(n)
	}
	return n
}

func isDigit(c byte, base int) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if base == 16 {
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}
