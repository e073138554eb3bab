package catalog

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Products */

func (r *Repo) CreateProduct(ctx context.Context, sku, name string, unitPrice float64, reorderPoint int) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, unit_price, reorder_point, active)
		VALUES ($1,$2,$3,$4,TRUE)
		ON CONFLICT (sku) DO NOTHING
		RETURNING id, sku, name, unit_price, reorder_point, active, created_at
	`, sku, name, unitPrice, reorderPoint)
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return r.GetProductBySKU(ctx, sku)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, sku, name, unit_price, reorder_point, active, created_at
		FROM products WHERE id = $1
	`, id)
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, sku, name, unit_price, reorder_point, active, created_at
		FROM products WHERE sku = $1
	`, sku)
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SearchProducts matches part of the sku or name, case-insensitive.
func (r *Repo) SearchProducts(ctx context.Context, q string, onlyActive bool) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"

	base := `
		SELECT id, sku, name, unit_price, reorder_point, active, created_at
		FROM products
		WHERE LOWER(sku) LIKE $1 OR LOWER(name) LIKE $1
	`
	var rows pgx.Rows
	var err error
	if onlyActive {
		rows, err = r.pool.Query(ctx, base+` AND active = TRUE ORDER BY sku`, like)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY sku`, like)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdatePrice(ctx context.Context, id int64, price float64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET unit_price=$2 WHERE id=$1
		RETURNING id, sku, name, unit_price, reorder_point, active, created_at
	`, id, price)
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) SetProductActive(ctx context.Context, id int64, active bool) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products SET active=$2 WHERE id=$1
		RETURNING id, sku, name, unit_price, reorder_point, active, created_at
	`, id, active)
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

/* Warehouses */

func (r *Repo) CreateWarehouse(ctx context.Context, name string) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name, active) VALUES ($1, TRUE)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, active, created_at
	`, name)
	var w Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt)
	if err == pgx.ErrNoRows {
		return r.GetWarehouseByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repo) GetWarehouse(ctx context.Context, id int64) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at FROM warehouses WHERE id = $1
	`, id)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) GetWarehouseByName(ctx context.Context, name string) (*Warehouse, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, created_at FROM warehouses WHERE name = $1
	`, name)
	var w Warehouse
	if err := row.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *Repo) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, active, created_at FROM warehouses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
