package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rewardscope/internal/aggregate"
	"rewardscope/internal/ledger"
	"rewardscope/internal/model"
)

const (
	accountA = "0x00000000000000000000000000000000000000000000000000000000000000aa"
	accountB = "0x00000000000000000000000000000000000000000000000000000000000000bb"
	accountC = "0x00000000000000000000000000000000000000000000000000000000000000cc"
)

var testNow = time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC)

func claimTx(version int, account string, amount int64) model.Transaction {
	data := fmt.Sprintf(`{"user":%q,"reward_token":{"inner":"0xmove"},"reward_amount":"%d","pool_address":"0xpool"}`, account, amount)
	return model.Transaction{
		Version:   fmt.Sprint(version),
		Hash:      fmt.Sprintf("0x%x", version),
		Timestamp: fmt.Sprint(testNow.Add(-time.Duration(version) * time.Minute).UnixMicro()),
		Events: []model.Event{
			{Type: "0x1::coin::WithdrawEvent", Data: []byte(`{"amount":"1"}`)},
			{Type: DefaultEventType, SequenceNumber: fmt.Sprint(version), Data: []byte(data)},
		},
	}
}

func fillerPage(start, n int) []model.Transaction {
	page := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, model.Transaction{Version: fmt.Sprint(start + i)})
	}
	return page
}

type pageFetcher struct {
	pages map[int][]model.Transaction
	fail  map[int]error
}

func (f *pageFetcher) FetchPage(ctx context.Context, address string, offset, limit int) ([]model.Transaction, error) {
	if err, ok := f.fail[offset]; ok {
		return nil, err
	}
	return f.pages[offset], nil
}

type mapCollector struct {
	mu     sync.Mutex
	byAddr map[string]ledger.Collection
	seen   []string
	delay  time.Duration
	active int32
	peak   int32
}

func (c *mapCollector) Collect(ctx context.Context, address string) ledger.Collection {
	n := atomic.AddInt32(&c.active, 1)
	defer atomic.AddInt32(&c.active, -1)
	for {
		peak := atomic.LoadInt32(&c.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&c.peak, peak, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	c.seen = append(c.seen, address)
	c.mu.Unlock()
	return c.byAddr[address]
}

func testConfig() Config {
	return Config{Aggregate: aggregate.Options{Now: func() time.Time { return testNow }}}
}

func TestResolveRewardsEmptyHistory(t *testing.T) {
	collector := ledger.NewCollector(&pageFetcher{}, ledger.DefaultPagePolicy(), ledger.RetryPolicy{}, zap.NewNop())
	e := New(collector, nil, testConfig(), nil)

	report := e.ResolveRewards(context.Background(), accountA)

	assert.Equal(t, accountA, report.UserAddress)
	assert.Empty(t, report.TotalRewards)
	assert.Empty(t, report.ClaimHistory)
	assert.Equal(t, 0, report.Summary.TotalClaims)
	assert.Equal(t, "0", report.Summary.TotalMoveTokens.String())
	assert.Equal(t, "0", report.Summary.AverageClaimAmount.String())
	assert.Empty(t, report.Summary.RecentClaims)
	assert.False(t, report.Partial)
	assert.Equal(t, 0, report.TransactionsScanned)
}

func TestResolveRewardsPartialAfterFailure(t *testing.T) {
	pages := map[int][]model.Transaction{
		0:   append([]model.Transaction{claimTx(1, accountA, 100000000)}, fillerPage(1000, 99)...),
		100: append([]model.Transaction{claimTx(2, accountA, 50000000), claimTx(3, accountB, 7)}, fillerPage(2000, 98)...),
		200: fillerPage(3000, 100),
	}
	fetcher := &pageFetcher{
		pages: pages,
		fail:  map[int]error{300: &ledger.FetchError{Address: accountA, Offset: 300, StatusCode: 500, Err: errors.New("internal")}},
	}
	collector := ledger.NewCollector(fetcher, ledger.DefaultPagePolicy(), ledger.RetryPolicy{}, zap.NewNop())
	e := New(collector, nil, testConfig(), nil)

	report := e.ResolveRewards(context.Background(), accountA)

	assert.True(t, report.Partial)
	assert.Contains(t, report.FetchError, "500")
	assert.Equal(t, 300, report.TransactionsScanned)
	require.Len(t, report.ClaimHistory, 2)
	assert.Equal(t, "1.5", report.Summary.TotalMoveTokens.String())
	assert.Equal(t, "0.75", report.Summary.AverageClaimAmount.String())
	require.Len(t, report.TotalRewards, 1)
	assert.Equal(t, "0xmove", report.TotalRewards[0].Token)
	assert.Equal(t, "150000000", report.TotalRewards[0].Raw.String())
	assert.Equal(t, "1.5", report.Summary.TodayClaimed.String())
}

func TestResolveRewardsIgnoresOtherEventTypes(t *testing.T) {
	tx := claimTx(1, accountA, 10)
	tx.Events[1].Type = RewardsContract + "::multi_rewards::RewardAddedEvent"
	collector := ledger.NewCollector(&pageFetcher{pages: map[int][]model.Transaction{0: {tx}}}, ledger.DefaultPagePolicy(), ledger.RetryPolicy{}, zap.NewNop())

	report := New(collector, nil, testConfig(), nil).ResolveRewards(context.Background(), accountA)

	assert.Empty(t, report.ClaimHistory)
	assert.Equal(t, 1, report.TransactionsScanned)
}

func TestResolveRewardsBatchKeepsOrder(t *testing.T) {
	report := ledger.Collection{Transactions: []model.Transaction{claimTx(1, accountB, 200000000)}, Pages: 1}
	collector := &mapCollector{
		delay: 10 * time.Millisecond,
		byAddr: map[string]ledger.Collection{
			accountA: {Err: errors.New("connection refused")},
			accountB: report,
			accountC: {Transactions: []model.Transaction{claimTx(2, accountC, 5)}, Err: errors.New("page 2 failed")},
		},
	}
	cfg := testConfig()
	cfg.Concurrency = 2
	e := New(collector, nil, cfg, nil)

	results := e.ResolveRewardsBatch(context.Background(), []string{accountA, accountB, accountC})

	require.Len(t, results, 3)
	assert.Equal(t, accountA, results[0].Address)
	assert.False(t, results[0].Success)
	assert.Equal(t, "connection refused", results[0].Error)
	assert.Nil(t, results[0].Data)

	assert.Equal(t, accountB, results[1].Address)
	require.True(t, results[1].Success)
	assert.Equal(t, "2", results[1].Data.Summary.TotalMoveTokens.String())
	assert.False(t, results[1].Data.Partial)

	assert.Equal(t, accountC, results[2].Address)
	require.True(t, results[2].Success)
	assert.True(t, results[2].Data.Partial)
	assert.Equal(t, 1, results[2].Data.Summary.TotalClaims)

	assert.LessOrEqual(t, atomic.LoadInt32(&collector.peak), int32(2))
}

func TestResolveRewardsBatchCancelled(t *testing.T) {
	collector := &mapCollector{byAddr: map[string]ledger.Collection{}}
	e := New(collector, nil, testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.ResolveRewardsBatch(ctx, []string{accountA, accountB})

	require.Len(t, results, 2)
	for i, addr := range []string{accountA, accountB} {
		assert.Equal(t, addr, results[i].Address)
		assert.False(t, results[i].Success)
		assert.Equal(t, context.Canceled.Error(), results[i].Error)
	}
	assert.Empty(t, collector.seen)
}

func TestResolveRewardsBatchEmpty(t *testing.T) {
	e := New(&mapCollector{}, nil, testConfig(), nil)
	assert.Empty(t, e.ResolveRewardsBatch(context.Background(), nil))
}

type fixedQuote struct{ quote model.PriceQuote }

func (f fixedQuote) Resolve(ctx context.Context) model.PriceQuote { return f.quote }

func TestResolvePrice(t *testing.T) {
	p := 0.0123
	e := New(&mapCollector{}, fixedQuote{model.PriceQuote{Price: &p, Source: "DexScreener", Success: true}}, testConfig(), nil)
	quote := e.ResolvePrice(context.Background())
	assert.True(t, quote.Success)
	assert.Equal(t, "DexScreener", quote.Source)

	fallback := New(&mapCollector{}, nil, testConfig(), nil).ResolvePrice(context.Background())
	assert.False(t, fallback.Success)
	assert.Equal(t, "Fallback", fallback.Source)
}
