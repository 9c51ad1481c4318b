package domain

// candidate.go - TokenCandidate and the upstream events that feed Intake.

import "time"

// SourceTag identifies which upstream room produced a candidate.
type SourceTag string

const (
	SourceNewPairs      SourceTag = "new_pairs"
	SourceSurgeUpdate   SourceTag = "surge-updates"
	SourceUpdatePulseV2 SourceTag = "update_pulse_v2"
)

// TokenCandidate is created by Token Intake and is immutable afterward.
type TokenCandidate struct {
	Address             string
	Symbol              string
	Name                string
	FirstSeenAt         time.Time
	InitialLiquidityUsd float64
	InitialPriceUsd     *float64
	Source              SourceTag
}

// NewToken is the adapter-level event parsed from the "new_pairs" room.
type NewToken struct {
	Address      string
	Symbol       string
	Name         string
	LiquidityUsd *float64
	MarketCapUsd *float64
	PriceUsd     *float64
	SourceTag    SourceTag
}

// SurgeUpdate is the adapter-level event parsed from "surge-updates".
type SurgeUpdate struct {
	Address  string
	Symbol   string
	Rank     *int
	Jump     *float64
	PriceUsd *float64
	Volume   *float64
	Ts       time.Time
}

// WhaleTrade is parsed from the whale feed's array schema.
type WhaleTrade struct {
	Address    string
	Symbol     string
	Wallet     string
	TxID       string
	Action     string // "buy" or "sell"
	AmountUsd  float64
	ProfitUsd  float64
	TradeTime  time.Time
}

// FeeKind enumerates the two fee/priority rooms.
type FeeKind string

const (
	FeeKindJitoBribe     FeeKind = "jito_bribe"
	FeeKindSolPriority   FeeKind = "sol_priority"
)

// FeeUpdate is parsed from the jito-bribe-fee / sol-priority-fee rooms.
type FeeUpdate struct {
	Kind     FeeKind
	ValueSol float64
	Ts       time.Time
}

// BlockHash is parsed from the block_hash room.
type BlockHash struct {
	Hash string
	Ts   time.Time
}
