package domain

// portfolio.go - Portfolio, single-writer owned by the Paper-Trading
// Engine; readers only ever see a deep-copied snapshot.

import "github.com/shopspring/decimal"

// PortfolioMetrics tracks running trade statistics.
type PortfolioMetrics struct {
	Trades          int
	Wins            int
	Losses          int
	MaxDrawdownPct  float64
	Sharpe          float64
}

// Portfolio is the Paper-Trading Engine's exclusively-owned state.
// Every field here is mutated only on the single writer goroutine;
// callers elsewhere in the pipeline receive a Snapshot, never this
// struct directly.
type Portfolio struct {
	CashUsd         decimal.Decimal
	EquityUsd       decimal.Decimal
	PeakEquityUsd   decimal.Decimal
	OpenPositions   map[string]*Position // keyed by Position.ID
	ClosedPositions []Position           // bounded ring, oldest evicted first
	MaxClosedRing   int
	Metrics         PortfolioMetrics
}

// NewPortfolio returns a Portfolio seeded with startingCashUsd and a
// closed-position ring bounded to maxClosedRing entries.
func NewPortfolio(startingCashUsd decimal.Decimal, maxClosedRing int) *Portfolio {
	return &Portfolio{
		CashUsd:         startingCashUsd,
		EquityUsd:       startingCashUsd,
		PeakEquityUsd:   startingCashUsd,
		OpenPositions:   make(map[string]*Position),
		ClosedPositions: make([]Position, 0, maxClosedRing),
		MaxClosedRing:   maxClosedRing,
	}
}

// recomputeEquity recomputes EquityUsd = cash + Σ mark-to-market of open
// positions, per the invariant in §3. Must be called by the writer
// after any mutation that changes cash or an open position's LastPriceUsd.
func (p *Portfolio) recomputeEquity() {
	equity := p.CashUsd
	for _, pos := range p.OpenPositions {
		equity = equity.Add(pos.MarkToMarketUsd())
	}
	p.EquityUsd = equity
	if equity.GreaterThan(p.PeakEquityUsd) {
		p.PeakEquityUsd = equity
	}
}

// RecomputeEquity is the exported form used by the engine after each
// command; kept as a thin wrapper so engine.go reads declaratively.
func (p *Portfolio) RecomputeEquity() { p.recomputeEquity() }

// PushClosed is the exported form used by the engine to retire a
// position into the closed ring.
func (p *Portfolio) PushClosed(pos Position) { p.pushClosed(pos) }

// pushClosed appends to the closed ring, evicting the oldest entry once
// MaxClosedRing is exceeded.
func (p *Portfolio) pushClosed(pos Position) {
	if p.MaxClosedRing <= 0 {
		return
	}
	p.ClosedPositions = append(p.ClosedPositions, pos)
	if len(p.ClosedPositions) > p.MaxClosedRing {
		p.ClosedPositions = p.ClosedPositions[len(p.ClosedPositions)-p.MaxClosedRing:]
	}
}

// Snapshot is the deep-copied, reader-safe view returned by
// Portfolio.snapshot() (§4.6).
type Snapshot struct {
	CashUsd         decimal.Decimal
	EquityUsd       decimal.Decimal
	PeakEquityUsd   decimal.Decimal
	OpenPositions   []Position
	ClosedPositions []Position
	Metrics         PortfolioMetrics
	TakenAt         string // RFC3339, set by caller to avoid a time import cycle in tests
}

// Snapshot deep-copies the portfolio for a reader. Called on the writer
// goroutine; the returned value is safe to pass to any other goroutine.
func (p *Portfolio) Snapshot() Snapshot {
	open := make([]Position, 0, len(p.OpenPositions))
	for _, pos := range p.OpenPositions {
		open = append(open, *pos)
	}
	closed := make([]Position, len(p.ClosedPositions))
	copy(closed, p.ClosedPositions)
	return Snapshot{
		CashUsd:         p.CashUsd,
		EquityUsd:       p.EquityUsd,
		PeakEquityUsd:   p.PeakEquityUsd,
		OpenPositions:   open,
		ClosedPositions: closed,
		Metrics:         p.Metrics,
	}
}
