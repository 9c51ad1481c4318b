package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewTimeseriesStore_FallsBackToMemoryWhenDSNEmpty(t *testing.T) {
	store, err := NewTimeseriesStore("", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*memoryTimeseriesStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	_ = store.Close()
}

func TestMemoryTimeseriesStore_AppendAndSeries(t *testing.T) {
	store := newMemoryTimeseriesStore(3)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, PriceTick{
			Address:  "So111",
			PriceUsd: decimal.NewFromFloat(float64(i)),
			Ts:       base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	series, err := store.Series(ctx, "So111", 10)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected ring bounded to 3 entries, got %d", len(series))
	}
	// Ring kept the 3 most recent appends (prices 2, 3, 4); newest first.
	if !series[0].PriceUsd.Equal(decimal.NewFromFloat(4)) {
		t.Errorf("expected newest-first ordering, got %v first", series[0].PriceUsd)
	}
	if !series[2].PriceUsd.Equal(decimal.NewFromFloat(2)) {
		t.Errorf("expected oldest retained entry to be price 2, got %v", series[2].PriceUsd)
	}
}

func TestMemoryTimeseriesStore_SeriesForUnknownAddress(t *testing.T) {
	store := newMemoryTimeseriesStore(10)
	series, err := store.Series(context.Background(), "unknown", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d entries", len(series))
	}
}
