package claims

import (
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"rewardscope/internal/metrics"
	"rewardscope/internal/model"
)

// DropReason names why a claim event produced no claim.
type DropReason string

const (
	DropNone              DropReason = ""
	DropParse             DropReason = "parse"
	DropForeignAccount    DropReason = "foreign_account"
	DropMissingToken      DropReason = "missing_token"
	DropNonPositiveAmount DropReason = "non_positive_amount"
)

// Normalizer resolves claim events into claims for a single account.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns the claim for ev, or false when ev is malformed or
// belongs to another account.
func (n *Normalizer) Normalize(ev model.ClaimEvent, account string) (model.Claim, bool) {
	claim, reason := normalize(ev, account)
	return claim, reason == DropNone
}

// NormalizeAll normalizes events in order and keeps only the claims produced.
func (n *Normalizer) NormalizeAll(events []model.ClaimEvent, account string) []model.Claim {
	out := make([]model.Claim, 0, len(events))
	dropped := make(map[DropReason]int)
	for _, ev := range events {
		claim, reason := normalize(ev, account)
		if reason != DropNone {
			dropped[reason]++
			metrics.ClaimsDropped.WithLabelValues(string(reason)).Inc()
			n.logger.Debug("drop claim event",
				zap.String("reason", string(reason)),
				zap.String("tx_hash", ev.TransactionHash),
				zap.String("sequence_number", ev.SequenceNumber),
			)
			continue
		}
		out = append(out, claim)
	}
	metrics.ClaimsNormalized.Add(float64(len(out)))

	if len(dropped) > 0 {
		fields := []zap.Field{zap.String("address", account), zap.Int("claims", len(out))}
		for reason, count := range dropped {
			fields = append(fields, zap.Int(string(reason), count))
		}
		n.logger.Info("claim events dropped", fields...)
	}
	return out
}

func normalize(ev model.ClaimEvent, account string) (model.Claim, DropReason) {
	payload, ok := parsePayload(ev.Data)
	if !ok {
		return model.Claim{}, DropParse
	}

	claimant, ok := claimantField.resolve(payload)
	if !ok || claimant.String() != account {
		return model.Claim{}, DropForeignAccount
	}

	var token string
	if value, ok := tokenField.resolve(payload); ok {
		token = tokenString(unwrapInner(value))
	}

	amountValue, _ := amountField.resolve(payload)
	amount := coerceAmount(amountValue)

	if token == "" {
		return model.Claim{}, DropMissingToken
	}
	if amount.Sign() <= 0 {
		return model.Claim{}, DropNonPositiveAmount
	}

	pool := model.Unknown
	if value, ok := poolField.resolve(payload); ok {
		pool = value.String()
	}

	return model.Claim{
		PoolAddress:        pool,
		RewardToken:        token,
		RewardAmount:       amountText(amountValue),
		RewardAmountParsed: amount,
		Claimant:           account,
		SequenceNumber:     orUnknown(ev.SequenceNumber),
		TransactionVersion: orUnknown(ev.TransactionVersion),
		TransactionHash:    orUnknown(ev.TransactionHash),
		Timestamp:          orUnknown(ev.Timestamp),
		EventType:          orUnknown(ev.Type),
	}, DropNone
}

// parsePayload decodes event data, unwrapping one level of string encoding.
func parsePayload(data []byte) (gjson.Result, bool) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return gjson.Result{}, false
	}
	payload := gjson.ParseBytes(data)
	if payload.Type == gjson.String {
		if !gjson.Valid(payload.Str) {
			return gjson.Result{}, false
		}
		payload = gjson.Parse(payload.Str)
	}
	return payload, true
}

func amountText(value gjson.Result) string {
	if value.Type == gjson.String {
		return value.Str
	}
	return value.Raw
}

func orUnknown(value string) string {
	if value == "" {
		return model.Unknown
	}
	return value
}
