package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warebase/backoffice/internal/infra/metrics"
)

// Engine owns every mutation of inventory quantities. Each operation is one
// transaction against the authoritative store: lock the touched rows, check
// the invariant, mutate, append the transaction trail, commit. Movement and
// audit documents are recorded after commit and never block the result.
type Engine struct {
	store     Store
	movements MovementRecorder
	audit     AuditRecorder
	log       *slog.Logger
}

func NewEngine(store Store, movements MovementRecorder, audit AuditRecorder, log *slog.Logger) *Engine {
	return &Engine{store: store, movements: movements, audit: audit, log: log}
}

type AdjustParams struct {
	ProductID   int64
	WarehouseID int64
	QtyChange   int
	Reason      string
	Note        string
	Actor       string
}

type ReserveParams struct {
	ProductID     int64
	WarehouseID   int64
	Qty           int
	ReferenceType string
	ReferenceID   string
	Actor         string
}

type ReleaseParams = ReserveParams

type TransferParams struct {
	ProductID       int64
	FromWarehouseID int64
	ToWarehouseID   int64
	Qty             int
	Note            string
	Actor           string
}

type UpdateReorderParams struct {
	ProductID    int64
	WarehouseID  int64
	ReorderLevel int
	Actor        string
}

// Adjust applies a signed on-hand change. A positive adjustment on a pair
// without a record creates it; a change that would drive on-hand negative is
// rejected before any write.
func (e *Engine) Adjust(ctx context.Context, p AdjustParams) (Snapshot, error) {
	const op = "adjust"
	var snap Snapshot
	var entries []MovementRecord

	err := e.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		rec, err := tx.LockOrCreateRecord(ctx, p.ProductID, p.WarehouseID)
		if err != nil {
			return err
		}
		newOnHand := rec.OnHand + p.QtyChange
		if newOnHand < 0 {
			return validationErr(op, ErrNegativeStock)
		}
		if newOnHand < rec.Reserved {
			// shrinking below the reserved portion would break the invariant
			return validationErr(op, ErrNegativeStock)
		}

		entry := TransactionEntry{
			ID:            uuid.New(),
			RecordID:      rec.ID,
			Type:          EntryAdjustment,
			QuantityDelta: p.QtyChange,
			PreviousQty:   rec.OnHand,
			NewQty:        newOnHand,
			Reason:        joinReason(p.Reason, p.Note),
			ReferenceType: "MANUAL",
			ActorID:       p.Actor,
			CreatedAt:     time.Now().UTC(),
		}

		ts, err := tx.UpdateQuantities(ctx, rec.ID, newOnHand, rec.Reserved)
		if err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		rec.OnHand = newOnHand
		rec.LastUpdatedAt = ts
		prod, err := tx.GetProduct(ctx, p.ProductID)
		if err != nil {
			return err
		}
		snap = newSnapshot(*rec, *prod)
		entries = []MovementRecord{movementFromEntry(entry, *rec, p.Actor)}
		return nil
	})
	return e.finish(ctx, op, p.Actor, snap, entries, err)
}

// Reserve earmarks available stock for a reference (order, shipment).
func (e *Engine) Reserve(ctx context.Context, p ReserveParams) (Snapshot, error) {
	const op = "reserve"
	var snap Snapshot
	var entries []MovementRecord

	err := e.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		if p.Qty <= 0 {
			return validationErr(op, ErrNonPositiveQuantity)
		}
		rec, err := tx.LockRecord(ctx, p.ProductID, p.WarehouseID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return validationErr(op, ErrRecordNotFound)
			}
			return err
		}
		if p.Qty > rec.Available() {
			return validationErr(op, ErrInsufficientAvailable)
		}
		newReserved := rec.Reserved + p.Qty

		entry := TransactionEntry{
			ID:            uuid.New(),
			RecordID:      rec.ID,
			Type:          EntryIssue,
			QuantityDelta: p.Qty,
			PreviousQty:   rec.Reserved,
			NewQty:        newReserved,
			ReferenceType: p.ReferenceType,
			ReferenceID:   p.ReferenceID,
			ActorID:       p.Actor,
			CreatedAt:     time.Now().UTC(),
		}

		ts, err := tx.UpdateQuantities(ctx, rec.ID, rec.OnHand, newReserved)
		if err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		rec.Reserved = newReserved
		rec.LastUpdatedAt = ts
		prod, err := tx.GetProduct(ctx, p.ProductID)
		if err != nil {
			return err
		}
		snap = newSnapshot(*rec, *prod)
		entries = []MovementRecord{movementFromEntry(entry, *rec, p.Actor)}
		return nil
	})
	return e.finish(ctx, op, p.Actor, snap, entries, err)
}

// Release returns reserved stock to the available pool.
func (e *Engine) Release(ctx context.Context, p ReleaseParams) (Snapshot, error) {
	const op = "release"
	var snap Snapshot
	var entries []MovementRecord

	err := e.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		if p.Qty <= 0 {
			return validationErr(op, ErrNonPositiveQuantity)
		}
		rec, err := tx.LockRecord(ctx, p.ProductID, p.WarehouseID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return validationErr(op, ErrRecordNotFound)
			}
			return err
		}
		if p.Qty > rec.Reserved {
			return validationErr(op, ErrReleaseExceedsReserved)
		}
		newReserved := rec.Reserved - p.Qty

		entry := TransactionEntry{
			ID:            uuid.New(),
			RecordID:      rec.ID,
			Type:          EntryRelease,
			QuantityDelta: -p.Qty,
			PreviousQty:   rec.Reserved,
			NewQty:        newReserved,
			ReferenceType: p.ReferenceType,
			ReferenceID:   p.ReferenceID,
			ActorID:       p.Actor,
			CreatedAt:     time.Now().UTC(),
		}

		ts, err := tx.UpdateQuantities(ctx, rec.ID, rec.OnHand, newReserved)
		if err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		rec.Reserved = newReserved
		rec.LastUpdatedAt = ts
		prod, err := tx.GetProduct(ctx, p.ProductID)
		if err != nil {
			return err
		}
		snap = newSnapshot(*rec, *prod)
		entries = []MovementRecord{movementFromEntry(entry, *rec, p.Actor)}
		return nil
	})
	return e.finish(ctx, op, p.Actor, snap, entries, err)
}

// Transfer moves available stock between warehouses in one transaction. Both
// rows are locked in ascending warehouse-id order so opposite-direction
// transfers of the same product cannot deadlock; the destination row is
// created seeded at zero when absent.
func (e *Engine) Transfer(ctx context.Context, p TransferParams) (Snapshot, Snapshot, error) {
	const op = "transfer"
	var fromSnap, toSnap Snapshot
	var entries []MovementRecord

	if p.FromWarehouseID == p.ToWarehouseID {
		err := validationErr(op, ErrSameWarehouse)
		metrics.Operations.WithLabelValues(op, outcomeLabel(err)).Inc()
		e.recordAudit(ctx, op, p.Actor, err)
		return Snapshot{}, Snapshot{}, err
	}

	err := e.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		if p.Qty <= 0 {
			return validationErr(op, ErrNonPositiveQuantity)
		}

		var from, to *Record
		var err error
		if p.FromWarehouseID < p.ToWarehouseID {
			if from, err = lockSource(ctx, tx, op, p.ProductID, p.FromWarehouseID); err != nil {
				return err
			}
			if to, err = tx.LockOrCreateRecord(ctx, p.ProductID, p.ToWarehouseID); err != nil {
				return err
			}
		} else {
			if to, err = tx.LockOrCreateRecord(ctx, p.ProductID, p.ToWarehouseID); err != nil {
				return err
			}
			if from, err = lockSource(ctx, tx, op, p.ProductID, p.FromWarehouseID); err != nil {
				return err
			}
		}

		if p.Qty > from.Available() {
			return validationErr(op, ErrInsufficientAvailable)
		}

		pairID := uuid.New().String()
		now := time.Now().UTC()
		outEntry := TransactionEntry{
			ID:            uuid.New(),
			RecordID:      from.ID,
			Type:          EntryTransferOut,
			QuantityDelta: -p.Qty,
			PreviousQty:   from.OnHand,
			NewQty:        from.OnHand - p.Qty,
			ReferenceType: "TRANSFER",
			ReferenceID:   pairID,
			Reason:        p.Note,
			ActorID:       p.Actor,
			CreatedAt:     now,
		}
		inEntry := TransactionEntry{
			ID:            uuid.New(),
			RecordID:      to.ID,
			Type:          EntryTransferIn,
			QuantityDelta: p.Qty,
			PreviousQty:   to.OnHand,
			NewQty:        to.OnHand + p.Qty,
			ReferenceType: "TRANSFER",
			ReferenceID:   pairID,
			Reason:        p.Note,
			ActorID:       p.Actor,
			CreatedAt:     now,
		}

		fromTS, err := tx.UpdateQuantities(ctx, from.ID, from.OnHand-p.Qty, from.Reserved)
		if err != nil {
			return err
		}
		toTS, err := tx.UpdateQuantities(ctx, to.ID, to.OnHand+p.Qty, to.Reserved)
		if err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, outEntry); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, inEntry); err != nil {
			return err
		}

		from.OnHand -= p.Qty
		from.LastUpdatedAt = fromTS
		to.OnHand += p.Qty
		to.LastUpdatedAt = toTS

		prod, err := tx.GetProduct(ctx, p.ProductID)
		if err != nil {
			return err
		}
		fromSnap = newSnapshot(*from, *prod)
		toSnap = newSnapshot(*to, *prod)
		entries = []MovementRecord{
			movementFromEntry(outEntry, *from, p.Actor),
			movementFromEntry(inEntry, *to, p.Actor),
		}
		return nil
	})

	err = classify(op, err)
	metrics.Operations.WithLabelValues(op, outcomeLabel(err)).Inc()
	if err != nil {
		e.noteFailure(op, err)
		e.recordAudit(ctx, op, p.Actor, err)
		return Snapshot{}, Snapshot{}, err
	}
	e.recordSideEffects(ctx, op, p.Actor, entries)
	return fromSnap, toSnap, nil
}

// UpdateReorder changes the product's reorder threshold. The inventory row is
// locked for a consistent read but only the catalogue entry is mutated, so
// the movement trail gets a REORDER_UPDATE record instead of a transaction
// entry.
func (e *Engine) UpdateReorder(ctx context.Context, p UpdateReorderParams) (Snapshot, error) {
	const op = "update_reorder"
	var snap Snapshot
	var entries []MovementRecord

	err := e.store.Exec(ctx, func(ctx context.Context, tx Tx) error {
		rec, err := tx.LockRecord(ctx, p.ProductID, p.WarehouseID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return validationErr(op, ErrRecordNotFound)
			}
			return err
		}
		prod, err := tx.GetProduct(ctx, p.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return validationErr(op, ErrProductNotFound)
			}
			return err
		}
		prev := prod.ReorderPoint
		if err := tx.SetReorderPoint(ctx, p.ProductID, p.ReorderLevel); err != nil {
			return err
		}
		prod.ReorderPoint = p.ReorderLevel
		snap = newSnapshot(*rec, *prod)

		next := p.ReorderLevel
		entries = []MovementRecord{{
			ID:                   uuid.New(),
			Type:                 MoveReorderUpdate,
			ProductID:            p.ProductID,
			WarehouseID:          p.WarehouseID,
			Actor:                p.Actor,
			OccurredAt:           time.Now().UTC(),
			PreviousReorderPoint: &prev,
			NewReorderPoint:      &next,
		}}
		return nil
	})
	return e.finish(ctx, op, p.Actor, snap, entries, err)
}

func joinReason(reason, note string) string {
	switch {
	case reason == "":
		return note
	case note == "":
		return reason
	default:
		return reason + "; " + note
	}
}

func lockSource(ctx context.Context, tx Tx, op string, productID, warehouseID int64) (*Record, error) {
	rec, err := tx.LockRecord(ctx, productID, warehouseID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, validationErr(op, ErrRecordNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func movementFromEntry(e TransactionEntry, rec Record, actor string) MovementRecord {
	return MovementRecord{
		ID:            uuid.New(),
		Type:          string(e.Type),
		ProductID:     rec.ProductID,
		WarehouseID:   rec.WarehouseID,
		QuantityDelta: e.QuantityDelta,
		PreviousQty:   e.PreviousQty,
		NewQty:        e.NewQty,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Reason:        e.Reason,
		Actor:         actor,
		OccurredAt:    e.CreatedAt,
	}
}

// finish classifies the outcome, counts it, and fires the post-commit side
// effects for successful operations.
func (e *Engine) finish(ctx context.Context, op, actor string, snap Snapshot, entries []MovementRecord, err error) (Snapshot, error) {
	err = classify(op, err)
	metrics.Operations.WithLabelValues(op, outcomeLabel(err)).Inc()
	if err != nil {
		e.noteFailure(op, err)
		e.recordAudit(ctx, op, actor, err)
		return Snapshot{}, err
	}
	e.recordSideEffects(ctx, op, actor, entries)
	return snap, nil
}

// noteFailure logs storage failures with the unsanitized driver cause; the
// caller only ever sees the sanitized StorageError text.
func (e *Engine) noteFailure(op string, err error) {
	var se *StorageError
	if errors.As(err, &se) {
		e.log.Error("ledger storage failure", "op", op, "cause", se.Unwrap())
	}
}

// recordSideEffects appends movement and audit documents after the primary
// commit. Runs detached from the request: a cancelled caller must not lose
// the trail, and a failing sink must not fail the operation.
func (e *Engine) recordSideEffects(ctx context.Context, op, actor string, entries []MovementRecord) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		for _, m := range entries {
			e.movements.Record(ctx, m)
		}
		e.audit.Record(ctx, AuditEvent{
			ID:         uuid.New(),
			Actor:      actor,
			Action:     "inventory." + op,
			Resource:   "inventory",
			Outcome:    "success",
			OccurredAt: time.Now().UTC(),
		})
	}()
}

func (e *Engine) recordAudit(ctx context.Context, op, actor string, opErr error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		e.audit.Record(ctx, AuditEvent{
			ID:         uuid.New(),
			Actor:      actor,
			Action:     "inventory." + op,
			Resource:   "inventory",
			Outcome:    "rejected",
			OccurredAt: time.Now().UTC(),
			Metadata:   map[string]any{"error": opErr.Error()},
		})
	}()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return "validation"
		}
		return "storage"
	}
}
