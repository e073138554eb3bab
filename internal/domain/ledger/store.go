package ledger

import (
	"context"
	"time"
)

// Tx is the row-level surface of one authoritative-store transaction.
// Lock methods block until the row lock is granted or the store's configured
// wait bound elapses (ErrLockTimeout).
type Tx interface {
	// LockRecord locks the (product, warehouse) row exclusively and returns
	// it. ErrRecordNotFound when no such row exists.
	LockRecord(ctx context.Context, productID, warehouseID int64) (*Record, error)

	// LockOrCreateRecord locks the row, creating it seeded at zero first if
	// absent. The created row is part of the transaction and disappears on
	// rollback.
	LockOrCreateRecord(ctx context.Context, productID, warehouseID int64) (*Record, error)

	// UpdateQuantities writes both counters and bumps last_updated_at,
	// returning the new timestamp.
	UpdateQuantities(ctx context.Context, recordID int64, onHand, reserved int) (time.Time, error)

	// AppendEntry inserts one transaction-trail row.
	AppendEntry(ctx context.Context, e TransactionEntry) error

	// GetProduct reads catalogue metadata. ErrProductNotFound when absent.
	GetProduct(ctx context.Context, productID int64) (*Product, error)

	// SetReorderPoint mutates the catalogue entry's threshold.
	SetReorderPoint(ctx context.Context, productID int64, level int) error
}

// Store runs fn inside one transaction; commit on nil, rollback otherwise.
type Store interface {
	Exec(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// MovementRecorder and AuditRecorder are best-effort sinks: Record never
// returns an error to the business caller — failures are logged and dropped
// by the implementation.
type MovementRecorder interface {
	Record(ctx context.Context, m MovementRecord)
	Query(ctx context.Context, f MovementFilter, limit int) ([]MovementRecord, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, ev AuditEvent)
}
