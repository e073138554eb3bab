package ledger

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOK       Status = "OK"
	StatusLow      Status = "LOW"
	StatusCritical Status = "CRITICAL"
)

// lowStockFactor is fixed: available within reorderPoint..1.5*reorderPoint is LOW.
const lowStockFactor = 1.5

type EntryType string

const (
	EntryAdjustment  EntryType = "ADJUSTMENT"
	EntryIssue       EntryType = "ISSUE"
	EntryRelease     EntryType = "RELEASE"
	EntryTransferOut EntryType = "TRANSFER_OUT"
	EntryTransferIn  EntryType = "TRANSFER_IN"

	// MoveReorderUpdate appears only in the movement trail; reorder point
	// changes never touch inventory quantities, so no transaction entry.
	MoveReorderUpdate = "REORDER_UPDATE"
)

// Record is one (product, warehouse) stock row of the authoritative store.
type Record struct {
	ID            int64
	ProductID     int64
	WarehouseID   int64
	OnHand        int
	Reserved      int
	LastUpdatedAt time.Time
}

func (r Record) Available() int { return r.OnHand - r.Reserved }

// Product is the catalogue view the engine needs: pricing for valuation and
// the reorder point for status derivation.
type Product struct {
	ID           int64
	SKU          string
	Name         string
	UnitPrice    float64
	ReorderPoint int
}

// DeriveStatus classifies available stock against the product's reorder point.
// Never stored; recomputed per read.
func DeriveStatus(available, reorderPoint int) Status {
	if available <= reorderPoint {
		return StatusCritical
	}
	if float64(available) <= float64(reorderPoint)*lowStockFactor {
		return StatusLow
	}
	return StatusOK
}

// Snapshot is the normalized view returned by every engine operation.
type Snapshot struct {
	ProductID     int64
	WarehouseID   int64
	SKU           string
	Name          string
	OnHand        int
	Reserved      int
	Available     int
	UnitPrice     float64
	ReorderPoint  int
	Status        Status
	LastUpdatedAt time.Time
}

func newSnapshot(rec Record, p Product) Snapshot {
	avail := rec.Available()
	return Snapshot{
		ProductID:     rec.ProductID,
		WarehouseID:   rec.WarehouseID,
		SKU:           p.SKU,
		Name:          p.Name,
		OnHand:        rec.OnHand,
		Reserved:      rec.Reserved,
		Available:     avail,
		UnitPrice:     p.UnitPrice,
		ReorderPoint:  p.ReorderPoint,
		Status:        DeriveStatus(avail, p.ReorderPoint),
		LastUpdatedAt: rec.LastUpdatedAt,
	}
}

// TransactionEntry is the append-only trail row written in the same
// transaction as the quantity change it describes. PreviousQty/NewQty track
// the counter the operation mutated: on-hand for adjust/transfer, reserved
// for issue/release.
type TransactionEntry struct {
	ID            uuid.UUID
	RecordID      int64
	Type          EntryType
	QuantityDelta int
	PreviousQty   int
	NewQty        int
	ReferenceType string
	ReferenceID   string
	Reason        string
	ActorID       string
	CreatedAt     time.Time
}

// MovementRecord mirrors a transaction entry into the secondary reporting
// store, denormalized so it can be queried without joining back.
type MovementRecord struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	ProductID     int64     `json:"productId"`
	WarehouseID   int64     `json:"warehouseId"`
	QuantityDelta int       `json:"quantityDelta"`
	PreviousQty   int       `json:"previousQty"`
	NewQty        int       `json:"newQty"`
	ReferenceType string    `json:"referenceType,omitempty"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurredAt"`

	// Reorder threshold change, set only for REORDER_UPDATE movements.
	PreviousReorderPoint *int `json:"previousReorderPoint,omitempty"`
	NewReorderPoint      *int `json:"newReorderPoint,omitempty"`
}

// AuditEvent describes a business action for the human audit trail.
type AuditEvent struct {
	ID         uuid.UUID      `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Outcome    string         `json:"outcome"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// MovementFilter narrows movement queries; zero values match everything.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Type        string
}

func (f MovementFilter) Matches(m MovementRecord) bool {
	if f.ProductID != 0 && m.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != 0 && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	return true
}
