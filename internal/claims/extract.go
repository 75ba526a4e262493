// Package claims turns ledger transactions into normalized reward claims.
package claims

import "rewardscope/internal/model"

// Extract returns every event of eventType in txs, tagged with its hosting
// transaction. Transaction order and in-transaction event order are kept.
func Extract(txs []model.Transaction, eventType string) []model.ClaimEvent {
	out := make([]model.ClaimEvent, 0)
	for _, tx := range txs {
		for _, ev := range tx.Events {
			if ev.Type != eventType {
				continue
			}
			out = append(out, model.ClaimEvent{
				Event:              ev,
				TransactionVersion: tx.Version,
				TransactionHash:    tx.Hash,
				Timestamp:          tx.Timestamp,
			})
		}
	}
	return out
}
