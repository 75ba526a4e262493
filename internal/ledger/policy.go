package ledger

import "fmt"

const (
	DefaultPageSize        = 100
	DefaultMaxTransactions = 2000
)

// PagePolicy decides how far the collector paginates.
type PagePolicy struct {
	PageSize        int
	MaxTransactions int
}

// DefaultPagePolicy returns the 100-per-page, 2000-total policy.
func DefaultPagePolicy() PagePolicy {
	return PagePolicy{PageSize: DefaultPageSize, MaxTransactions: DefaultMaxTransactions}
}

// Validate rejects policies that could never make progress.
func (p PagePolicy) Validate() error {
	if p.PageSize <= 0 {
		return fmt.Errorf("page size must be greater than zero")
	}
	if p.MaxTransactions <= 0 {
		return fmt.Errorf("max transactions must be greater than zero")
	}
	return nil
}

// Limit is the page size to request at offset; the last page is trimmed so
// the total never exceeds MaxTransactions.
func (p PagePolicy) Limit(offset int) int {
	remaining := p.MaxTransactions - offset
	if remaining < p.PageSize {
		return remaining
	}
	return p.PageSize
}

// Next returns the offset of the page after the one fetched at offset with
// pageLen entries, and whether it should be requested at all. A short or
// empty page marks the end of the history.
func (p PagePolicy) Next(offset, pageLen int) (int, bool) {
	limit := p.Limit(offset)
	if pageLen == 0 || pageLen < limit {
		return offset, false
	}
	next := offset + limit
	if next >= p.MaxTransactions {
		return next, false
	}
	return next, true
}

// Offsets lists every offset the policy would request if all pages were full.
func (p PagePolicy) Offsets() ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	offsets := make([]int, 0, (p.MaxTransactions+p.PageSize-1)/p.PageSize)
	for offset := 0; offset < p.MaxTransactions; offset += p.Limit(offset) {
		offsets = append(offsets, offset)
	}
	return offsets, nil
}
