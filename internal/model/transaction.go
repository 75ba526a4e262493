package model

import "encoding/json"

// Transaction is one entry of an account's ledger history.
type Transaction struct {
	Version   string  `json:"version"`
	Hash      string  `json:"hash"`
	Timestamp string  `json:"timestamp"`
	Events    []Event `json:"events"`
}

// Event is an event emitted by a transaction. Data is either a JSON object
// or a JSON string holding serialized JSON.
type Event struct {
	Type           string          `json:"type"`
	SequenceNumber string          `json:"sequence_number,omitempty"`
	Data           json.RawMessage `json:"data"`
}

// ClaimEvent is a matching event tagged with its hosting transaction.
type ClaimEvent struct {
	Event
	TransactionVersion string `json:"transaction_version"`
	TransactionHash    string `json:"transaction_hash"`
	Timestamp          string `json:"timestamp"`
}
