package ledger

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		available    int
		reorderPoint int
		want         Status
	}{
		{50, 50, StatusCritical},
		{60, 50, StatusLow},
		{75, 50, StatusLow}, // boundary: exactly 1.5x
		{76, 50, StatusOK},
		{80, 50, StatusOK},
		{0, 50, StatusCritical},
		{-3, 0, StatusCritical},
		{1, 0, StatusOK},
	}
	for _, c := range cases {
		if got := DeriveStatus(c.available, c.reorderPoint); got != c.want {
			t.Errorf("DeriveStatus(%d, %d) = %s, want %s", c.available, c.reorderPoint, got, c.want)
		}
	}
}

func TestSnapshotNormalization(t *testing.T) {
	ts := time.Now().UTC()
	rec := Record{ID: 3, ProductID: 1, WarehouseID: 2, OnHand: 10, Reserved: 4, LastUpdatedAt: ts}
	p := Product{ID: 1, SKU: "WID-1", Name: "Widget", UnitPrice: 1.5, ReorderPoint: 5}

	snap := newSnapshot(rec, p)
	if snap.Available != 6 {
		t.Errorf("available = %d, want 6", snap.Available)
	}
	if snap.Status != StatusLow { // 5 < 6 <= 7.5
		t.Errorf("status = %s, want LOW", snap.Status)
	}
	if snap.SKU != "WID-1" || snap.Name != "Widget" || snap.ReorderPoint != 5 {
		t.Errorf("catalogue fields not carried: %+v", snap)
	}
	if !snap.LastUpdatedAt.Equal(ts) {
		t.Errorf("timestamp not carried")
	}
}

func TestMovementFilterMatches(t *testing.T) {
	m := MovementRecord{ProductID: 1, WarehouseID: 2, Type: "ADJUSTMENT"}

	if !(MovementFilter{}).Matches(m) {
		t.Error("zero filter must match everything")
	}
	if !(MovementFilter{ProductID: 1, WarehouseID: 2, Type: "ADJUSTMENT"}).Matches(m) {
		t.Error("full match failed")
	}
	if (MovementFilter{ProductID: 9}).Matches(m) {
		t.Error("product mismatch must not match")
	}
	if (MovementFilter{Type: "ISSUE"}).Matches(m) {
		t.Error("type mismatch must not match")
	}
}
