package domain

// position.go - Position and its close-reason taxonomy, owned
// exclusively by the Paper-Trading Engine writer.

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the three-state position lifecycle: OPEN -> CLOSING
// -> CLOSED. No other transitions exist.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionClosing PositionStatus = "CLOSING"
	PositionClosed  PositionStatus = "CLOSED"
)

// CloseReason names why a position was closed, mirroring the strategy
// taxonomy (time exit, trailing stop, ...) used across the pack.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "stop_loss"
	CloseReasonTakeProfit CloseReason = "take_profit"
	CloseReasonTrailing   CloseReason = "trailing"
	CloseReasonTimeExit   CloseReason = "time_exit"
	CloseReasonManual     CloseReason = "manual"
)

// Position is mutated only by the Paper-Trading Engine's single writer;
// externally visible only via Portfolio snapshots and PipelineEvents.
type Position struct {
	ID                 string
	Address            string
	Symbol             string
	OpenedAt           time.Time
	EntryPriceUsd      decimal.Decimal
	SizeUsd            decimal.Decimal
	StopPriceUsd       decimal.Decimal
	TakeProfitPriceUsd decimal.Decimal
	TrailingHighUsd    decimal.Decimal
	Status             PositionStatus
	CloseReason        CloseReason
	RealizedPnlUsd     decimal.Decimal
	LastPriceUsd       decimal.Decimal
	LastUpdateAt       time.Time
}

// MarkToMarketUsd returns the current mark-to-market value of the
// position given its last observed price: sizeUsd * lastPrice/entryPrice.
func (p Position) MarkToMarketUsd() decimal.Decimal {
	if p.EntryPriceUsd.IsZero() {
		return decimal.Zero
	}
	return p.SizeUsd.Mul(p.LastPriceUsd).Div(p.EntryPriceUsd)
}

// UnrealizedPnlUsd returns MarkToMarketUsd - SizeUsd.
func (p Position) UnrealizedPnlUsd() decimal.Decimal {
	return p.MarkToMarketUsd().Sub(p.SizeUsd)
}
