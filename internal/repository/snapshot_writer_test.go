package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

func TestSnapshotWriter_WriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio_snapshot.json")

	w, err := NewSnapshotWriter(path)
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}

	snap := domain.Snapshot{
		CashUsd:       decimal.NewFromFloat(985.60),
		EquityUsd:     decimal.NewFromFloat(1000),
		PeakEquityUsd: decimal.NewFromFloat(1003.744),
		OpenPositions: []domain.Position{},
		ClosedPositions: []domain.Position{
			{ID: "pos-1", Address: "So111", Status: domain.PositionClosed, CloseReason: domain.CloseReasonTakeProfit},
		},
	}

	if err := w.Write(snap); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := w.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a snapshot to be present")
	}
	if !got.CashUsd.Equal(snap.CashUsd) {
		t.Errorf("cash mismatch: got %v want %v", got.CashUsd, snap.CashUsd)
	}
	if len(got.ClosedPositions) != 1 || got.ClosedPositions[0].ID != "pos-1" {
		t.Errorf("closed positions not round-tripped: %+v", got.ClosedPositions)
	}
}

func TestSnapshotWriter_LoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.json")

	w, err := NewSnapshotWriter(path)
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}

	_, ok, err := w.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing snapshot file")
	}
}

func TestSnapshotWriter_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio_snapshot.json")

	w, err := NewSnapshotWriter(path)
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}

	if err := w.Write(domain.Snapshot{CashUsd: decimal.NewFromFloat(1000)}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); err == nil {
		t.Error("expected .tmp file to be renamed away after a successful write")
	}
}

func TestSnapshotWriter_RunPeriodicWritesOnTick(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio_snapshot.json")

	w, err := NewSnapshotWriter(path)
	if err != nil {
		t.Fatalf("NewSnapshotWriter: %v", err)
	}

	calls := 0
	snapshotAt := func() domain.Snapshot {
		calls++
		return domain.Snapshot{CashUsd: decimal.NewFromFloat(float64(calls))}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(5*time.Millisecond, snapshotAt, stop)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	close(stop)
	<-done

	if calls == 0 {
		t.Error("expected at least one periodic write")
	}
}
