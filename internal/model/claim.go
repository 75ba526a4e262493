package model

import "math/big"

// Unknown marks a provenance or pool field the event did not carry.
const Unknown = "unknown"

// Claim is a normalized reward claim for one account.
type Claim struct {
	PoolAddress        string   `json:"pool_address"`
	RewardToken        string   `json:"reward_token"`
	RewardAmount       string   `json:"reward_amount"`
	RewardAmountParsed *big.Int `json:"reward_amount_parsed"`
	Claimant           string   `json:"claimant"`
	SequenceNumber     string   `json:"sequence_number"`
	TransactionVersion string   `json:"transaction_version"`
	TransactionHash    string   `json:"transaction_hash"`
	Timestamp          string   `json:"timestamp"`
	EventType          string   `json:"event_type"`
}
