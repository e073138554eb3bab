package report

import (
	"context"
	"testing"
	"time"

	"github.com/warebase/backoffice/internal/domain/ledger"
)

type staticSource struct {
	rows []ledger.Snapshot
	sum  ledger.Summary
}

func (s staticSource) List(_ context.Context, f ledger.ListFilter) ([]ledger.Snapshot, int, error) {
	if f.Page > 1 {
		return nil, len(s.rows), nil
	}
	return s.rows, len(s.rows), nil
}

func (s staticSource) Summarize(context.Context) (ledger.Summary, error) {
	return s.sum, nil
}

func TestBuildWorkbook(t *testing.T) {
	src := staticSource{
		rows: []ledger.Snapshot{
			{SKU: "A-1", Name: "Widget", WarehouseID: 10, OnHand: 12, Reserved: 2, Available: 10, UnitPrice: 3, ReorderPoint: 5, Status: ledger.StatusOK, LastUpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
			{SKU: "B-2", Name: "Gadget", WarehouseID: 20, OnHand: 2, Reserved: 0, Available: 2, UnitPrice: 9, ReorderPoint: 5, Status: ledger.StatusCritical},
		},
		sum: ledger.Summary{TotalSKUs: 2, LowCount: 0, CriticalCount: 1, TotalReserved: 2, TotalValue: 54},
	}

	f, err := NewExporter(src).BuildWorkbook(context.Background())
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer func() { _ = f.Close() }()

	if v, _ := f.GetCellValue("Summary", "A1"); v != "total_skus" {
		t.Errorf("Summary A1 = %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "B1"); v != "2" {
		t.Errorf("Summary B1 = %q, want 2", v)
	}
	if v, _ := f.GetCellValue("Summary", "B3"); v != "1" {
		t.Errorf("critical count cell = %q, want 1", v)
	}

	if v, _ := f.GetCellValue("Inventory", "A1"); v != "sku" {
		t.Errorf("Inventory header A1 = %q", v)
	}
	if v, _ := f.GetCellValue("Inventory", "A2"); v != "A-1" {
		t.Errorf("Inventory A2 = %q", v)
	}
	if v, _ := f.GetCellValue("Inventory", "I3"); v != "CRITICAL" {
		t.Errorf("Inventory I3 = %q, want CRITICAL", v)
	}
}
