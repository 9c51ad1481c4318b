package domain

// event.go - MarketTick and the PipelineEvent tagged union distributed
// by the Telemetry & Dashboard Bus.

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketTick is a price/volume observation for an address, pushed by
// the Market Data Router into open positions for exit evaluation.
type MarketTick struct {
	Address   string
	PriceUsd  decimal.Decimal
	VolumeUsd decimal.Decimal
	Ts        time.Time
}

// EventType discriminates the PipelineEvent tagged variant.
type EventType string

const (
	EventNewCandidate      EventType = "NewCandidate"
	EventEnrichmentDone    EventType = "EnrichmentDone"
	EventDecisionMade      EventType = "DecisionMade"
	EventTradeOpened       EventType = "TradeOpened"
	EventTradeClosed       EventType = "TradeClosed"
	EventFeeUpdate         EventType = "FeeUpdate"
	EventPortfolioSnapshot EventType = "PortfolioSnapshot"
	EventError             EventType = "Error"
)

// PipelineEvent is the ephemeral tagged variant flowing through the
// Telemetry & Dashboard Bus; lifetime is delivery to subscribers. Only
// the field matching Type is populated; the rest are zero values.
type PipelineEvent struct {
	Type      EventType
	Ts        time.Time
	Candidate *TokenCandidate
	Bundle    *EnrichmentBundle
	Decision  *Decision
	Position  *Position
	Fee       *FeeUpdate
	Snapshot  *Snapshot
	Err       *PipelineError
}

// PipelineError carries a typed error kind plus a human-readable detail
// for the Error variant of PipelineEvent; never a stack trace (§7).
type PipelineError struct {
	Kind    string
	Detail  string
	Address string
}
