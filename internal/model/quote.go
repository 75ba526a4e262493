package model

import "time"

// PriceQuote is the outcome of one price resolution.
type PriceQuote struct {
	Price     *float64  `json:"price"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}
