package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// TestScenarioB_TakeProfit walks through spec Scenario B's numbers end to
// end against the Portfolio/Position arithmetic alone (decision sizing is
// covered separately in the scoring package).
func TestScenarioB_TakeProfit(t *testing.T) {
	pf := NewPortfolio(dec("1000"), 100)

	sizeUsd := dec("14.40")
	pf.CashUsd = pf.CashUsd.Sub(sizeUsd)

	pos := &Position{
		ID:            "pos-1",
		Address:       "X",
		EntryPriceUsd: dec("1.000"),
		SizeUsd:       sizeUsd,
		Status:        PositionOpen,
		OpenedAt:      time.Unix(0, 0),
	}
	pf.OpenPositions[pos.ID] = pos

	pos.LastPriceUsd = dec("1.26")
	pf.recomputeEquity()

	closePrice := dec("1.26")
	realizedPnl := sizeUsd.Mul(closePrice.Sub(pos.EntryPriceUsd)).Div(pos.EntryPriceUsd)
	wantPnl := dec("3.744")
	if !realizedPnl.Equal(wantPnl) {
		t.Fatalf("realized pnl = %s, want %s", realizedPnl, wantPnl)
	}

	pf.CashUsd = pf.CashUsd.Add(sizeUsd).Add(realizedPnl)
	delete(pf.OpenPositions, pos.ID)
	pos.Status = PositionClosed
	pos.RealizedPnlUsd = realizedPnl
	pf.pushClosed(*pos)
	pf.recomputeEquity()

	wantCash := dec("1003.744")
	if !pf.CashUsd.Equal(wantCash) {
		t.Errorf("cash after close = %s, want %s", pf.CashUsd, wantCash)
	}
	if len(pf.ClosedPositions) != 1 {
		t.Errorf("expected 1 closed position, got %d", len(pf.ClosedPositions))
	}
}

func TestPosition_MarkToMarket(t *testing.T) {
	pos := Position{
		EntryPriceUsd: dec("2.000"),
		SizeUsd:       dec("20"),
		LastPriceUsd:  dec("1.69"),
	}
	mtm := pos.MarkToMarketUsd()
	want := dec("16.9") // 20 * 1.69/2.00
	if !mtm.Equal(want) {
		t.Errorf("mark to market = %s, want %s", mtm, want)
	}
}

func TestPortfolio_ClosedRingEviction(t *testing.T) {
	pf := NewPortfolio(dec("100"), 2)
	pf.pushClosed(Position{ID: "a"})
	pf.pushClosed(Position{ID: "b"})
	pf.pushClosed(Position{ID: "c"})

	if len(pf.ClosedPositions) != 2 {
		t.Fatalf("expected ring bounded to 2, got %d", len(pf.ClosedPositions))
	}
	if pf.ClosedPositions[0].ID != "b" || pf.ClosedPositions[1].ID != "c" {
		t.Errorf("expected oldest entry evicted, got %+v", pf.ClosedPositions)
	}
}

func TestPortfolio_SnapshotIsDeepCopy(t *testing.T) {
	pf := NewPortfolio(dec("500"), 10)
	pf.OpenPositions["p1"] = &Position{ID: "p1", SizeUsd: dec("10")}

	snap := pf.Snapshot()
	pf.OpenPositions["p1"].SizeUsd = dec("999")

	if snap.OpenPositions[0].SizeUsd.Equal(dec("999")) {
		t.Error("snapshot should not observe later mutation of the live portfolio")
	}
}

func TestDecision_TradeableAndReasons(t *testing.T) {
	d := Decision{
		Recommendation: RecommendSkip,
		Reasons:        []ReasonTag{ReasonHoneypot},
	}
	if d.Tradeable() {
		t.Error("SKIP decision should not be tradeable")
	}
	if !d.HasReason(ReasonHoneypot) {
		t.Error("expected HasReason(Honeypot) to be true")
	}
	if d.HasReason(ReasonLowLiquidity) {
		t.Error("expected HasReason(LowLiquidity) to be false")
	}
}
