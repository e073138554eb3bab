package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// lock_not_available, raised when lock_timeout elapses
	pgLockNotAvailable = "55P03"
	// foreign_key_violation, e.g. creating a row for an unknown product
	pgForeignKeyViolation = "23503"
)

// PgStore is the authoritative store on Postgres. Row locks are taken with
// SELECT ... FOR UPDATE; the wait is bounded per transaction with
// SET LOCAL lock_timeout.
type PgStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewPgStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PgStore {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &PgStore{pool: pool, lockTimeout: lockTimeout}
}

func (s *PgStore) Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock_timeout takes an interval literal, not a bind parameter
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return err
	}

	if err := fn(ctx, pgTx{tx: tx}); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgLockNotAvailable:
		return ErrLockTimeout
	case pgForeignKeyViolation:
		return ErrProductNotFound
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

const recordColumns = `id, product_id, warehouse_id, quantity_on_hand, quantity_reserved, last_updated_at`

func (t pgTx) LockRecord(ctx context.Context, productID, warehouseID int64) (*Record, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM inventory_records
		WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE
	`, productID, warehouseID)
	return scanRecord(row)
}

func (t pgTx) LockOrCreateRecord(ctx context.Context, productID, warehouseID int64) (*Record, error) {
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_records (product_id, warehouse_id, quantity_on_hand, quantity_reserved, last_updated_at)
		VALUES ($1, $2, 0, 0, NOW())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
	`, productID, warehouseID); err != nil {
		return nil, err
	}
	return t.LockRecord(ctx, productID, warehouseID)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.ProductID, &r.WarehouseID, &r.OnHand, &r.Reserved, &r.LastUpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (t pgTx) UpdateQuantities(ctx context.Context, recordID int64, onHand, reserved int) (time.Time, error) {
	var ts time.Time
	err := t.tx.QueryRow(ctx, `
		UPDATE inventory_records
		SET quantity_on_hand = $2, quantity_reserved = $3, last_updated_at = NOW()
		WHERE id = $1
		RETURNING last_updated_at
	`, recordID, onHand, reserved).Scan(&ts)
	return ts, err
}

func (t pgTx) AppendEntry(ctx context.Context, e TransactionEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_transactions
			(id, record_id, type, quantity_delta, previous_qty, new_qty,
			 reference_type, reference_id, reason, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, e.ID, e.RecordID, string(e.Type), e.QuantityDelta, e.PreviousQty, e.NewQty,
		e.ReferenceType, e.ReferenceID, e.Reason, e.ActorID, e.CreatedAt)
	return err
}

func (t pgTx) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, sku, name, unit_price, reorder_point
		FROM products WHERE id = $1
	`, productID)
	var p Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.ReorderPoint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t pgTx) SetReorderPoint(ctx context.Context, productID int64, level int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products SET reorder_point = $2 WHERE id = $1
	`, productID, level)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
