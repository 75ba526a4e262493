package engine

import "rewardscope/internal/aggregate"

const (
	// RewardsContract is the module address of the multi-rewards program.
	RewardsContract = "0x113a1769acc5ce21b5ece6f9533eef6dd34c758911fa5235124c87ff1298633b"
	// DefaultEventType is the fully-qualified claim event emitted by it.
	DefaultEventType = RewardsContract + "::multi_rewards::RewardClaimedEvent"
	// DefaultRPCURL is the public mainnet fullnode.
	DefaultRPCURL = "https://full.mainnet.movementinfra.xyz/v1"

	DefaultConcurrency = 4
)

// Config tunes the engine. Zero values fall back to the defaults above.
type Config struct {
	EventType   string
	Concurrency int
	Aggregate   aggregate.Options
}

func (c Config) withDefaults() Config {
	if c.EventType == "" {
		c.EventType = DefaultEventType
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}
