package papertrading

import "time"

// Config bounds the Paper-Trading Engine's behavior, per §4.6's named
// defaults.
type Config struct {
	MaxOpenPositions      int
	StopLossPct           float64
	TakeProfitPct         float64
	TrailingDrawdownPct   float64
	MaxHold               time.Duration
	MinTradeUsd           float64
	CommandQueueCapacity  int
	ClosedPositionRingMax int
}

// DefaultConfig matches §4.6/§8's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenPositions:      20,
		StopLossPct:           0.15,
		TakeProfitPct:         0.25,
		TrailingDrawdownPct:   0.15,
		MaxHold:               5 * time.Minute,
		MinTradeUsd:           10,
		CommandQueueCapacity:  256,
		ClosedPositionRingMax: 500,
	}
}
