package ledger

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListFilter narrows the inventory listing. Status is derived per row, so
// the status filter (and therefore pagination) is applied after the joined
// rows are materialized.
type ListFilter struct {
	Search      string
	WarehouseID int64
	Status      Status
	Page        int
	PageSize    int
}

type Summary struct {
	TotalSKUs     int
	LowCount      int
	CriticalCount int
	TotalReserved int
	TotalValue    float64
}

// QueryService is the read side: listing and aggregates over the
// authoritative store joined with catalogue metadata. It never mutates.
type QueryService struct {
	pool *pgxpool.Pool
}

func NewQueryService(pool *pgxpool.Pool) *QueryService {
	return &QueryService{pool: pool}
}

// List returns one page of snapshots plus the total count after filtering.
func (s *QueryService) List(ctx context.Context, f ListFilter) ([]Snapshot, int, error) {
	rows, err := s.fetch(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	rows = filterByStatus(rows, f.Status)
	total := len(rows)
	return paginate(rows, f.Page, f.PageSize), total, nil
}

// Summarize aggregates over every inventory row. Low/critical counts need
// the derived status, so the aggregation happens over materialized rows.
func (s *QueryService) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.fetch(ctx, ListFilter{})
	if err != nil {
		return Summary{}, err
	}
	return summarize(rows), nil
}

func (s *QueryService) fetch(ctx context.Context, f ListFilter) ([]Snapshot, error) {
	q := `
		SELECT r.product_id, r.warehouse_id, p.sku, p.name,
		       r.quantity_on_hand, r.quantity_reserved,
		       p.unit_price, p.reorder_point, r.last_updated_at
		FROM inventory_records r
		JOIN products p ON p.id = r.product_id
		JOIN warehouses w ON w.id = r.warehouse_id
	`
	var conds []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(f.Search))+"%")
		conds = append(conds, "(LOWER(p.sku) LIKE $1 OR LOWER(p.name) LIKE $1)")
	}
	if f.WarehouseID != 0 {
		args = append(args, f.WarehouseID)
		if len(args) == 1 {
			conds = append(conds, "r.warehouse_id = $1")
		} else {
			conds = append(conds, "r.warehouse_id = $2")
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY p.sku, r.warehouse_id"

	dbRows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var out []Snapshot
	for dbRows.Next() {
		var rec Record
		var p Product
		if err := dbRows.Scan(
			&rec.ProductID, &rec.WarehouseID, &p.SKU, &p.Name,
			&rec.OnHand, &rec.Reserved,
			&p.UnitPrice, &p.ReorderPoint, &rec.LastUpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, newSnapshot(rec, p))
	}
	return out, dbRows.Err()
}

func filterByStatus(rows []Snapshot, status Status) []Snapshot {
	if status == "" {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func paginate(rows []Snapshot, page, size int) []Snapshot {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return nil
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func summarize(rows []Snapshot) Summary {
	var sum Summary
	sum.TotalSKUs = len(rows)
	for _, r := range rows {
		switch r.Status {
		case StatusLow:
			sum.LowCount++
		case StatusCritical:
			sum.CriticalCount++
		}
		sum.TotalReserved += r.Reserved
		sum.TotalValue += float64(r.OnHand) * r.UnitPrice
	}
	return sum
}
