package ledger

import "testing"

func sampleRows() []Snapshot {
	mk := func(sku string, onHand, reserved, reorder int, price float64) Snapshot {
		rec := Record{OnHand: onHand, Reserved: reserved}
		return newSnapshot(rec, Product{SKU: sku, UnitPrice: price, ReorderPoint: reorder})
	}
	return []Snapshot{
		mk("A-1", 100, 10, 10, 2),  // available 90 -> OK
		mk("B-2", 12, 0, 10, 1),    // available 12 -> LOW
		mk("C-3", 5, 2, 10, 3),     // available 3 -> CRITICAL
		mk("D-4", 40, 15, 20, 0.5), // available 25 -> LOW
		mk("E-5", 0, 0, 10, 4),     // available 0 -> CRITICAL
	}
}

func TestFilterByStatus(t *testing.T) {
	rows := sampleRows()

	if got := filterByStatus(rows, ""); len(got) != 5 {
		t.Errorf("empty status filter must keep all rows, got %d", len(got))
	}
	low := filterByStatus(rows, StatusLow)
	if len(low) != 2 || low[0].SKU != "B-2" || low[1].SKU != "D-4" {
		t.Errorf("unexpected LOW rows: %+v", low)
	}
	if got := filterByStatus(rows, StatusCritical); len(got) != 2 {
		t.Errorf("expected 2 CRITICAL rows, got %d", len(got))
	}
}

func TestPaginate(t *testing.T) {
	rows := sampleRows()

	page1 := paginate(rows, 1, 2)
	if len(page1) != 2 || page1[0].SKU != "A-1" {
		t.Errorf("unexpected first page: %+v", page1)
	}
	page3 := paginate(rows, 3, 2)
	if len(page3) != 1 || page3[0].SKU != "E-5" {
		t.Errorf("unexpected last page: %+v", page3)
	}
	if got := paginate(rows, 4, 2); got != nil {
		t.Errorf("out-of-range page must be empty, got %+v", got)
	}
	if got := paginate(rows, 0, 0); len(got) != 5 {
		// defaults: page 1, size 20
		t.Errorf("defaults not applied, got %d rows", len(got))
	}
	if got := paginate(rows, 1, 1000); len(got) != 5 {
		t.Errorf("oversized page must still return rows, got %d", len(got))
	}
}

func TestSummarize(t *testing.T) {
	sum := summarize(sampleRows())

	if sum.TotalSKUs != 5 {
		t.Errorf("TotalSKUs = %d, want 5", sum.TotalSKUs)
	}
	if sum.LowCount != 2 || sum.CriticalCount != 2 {
		t.Errorf("low=%d critical=%d, want 2/2", sum.LowCount, sum.CriticalCount)
	}
	if sum.TotalReserved != 27 {
		t.Errorf("TotalReserved = %d, want 27", sum.TotalReserved)
	}
	want := 100*2.0 + 12*1.0 + 5*3.0 + 40*0.5 + 0*4.0
	if sum.TotalValue != want {
		t.Errorf("TotalValue = %v, want %v", sum.TotalValue, want)
	}
}
