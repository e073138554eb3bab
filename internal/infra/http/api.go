package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/warebase/backoffice/internal/domain/ledger"
)

// API is the thin caller surface over the ledger: decode the request shape,
// attach the actor identity, translate engine results and typed errors to
// HTTP responses. No business decisions happen here.
type API struct {
	engine    *ledger.Engine
	queries   *ledger.QueryService
	movements ledger.MovementRecorder
	log       *slog.Logger
}

func NewAPI(engine *ledger.Engine, queries *ledger.QueryService, movements ledger.MovementRecorder, log *slog.Logger) *API {
	return &API{engine: engine, queries: queries, movements: movements, log: log}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /inventory/adjust", a.adjust)
	mux.HandleFunc("POST /inventory/reserve", a.reserve)
	mux.HandleFunc("POST /inventory/release", a.release)
	mux.HandleFunc("POST /inventory/transfer", a.transfer)
	mux.HandleFunc("POST /inventory/reorder-point", a.updateReorder)
	mux.HandleFunc("GET /inventory", a.list)
	mux.HandleFunc("GET /inventory/summary", a.summary)
	mux.HandleFunc("GET /inventory/movements", a.listMovements)
}

func actor(r *http.Request) string {
	if v := r.Header.Get("X-Actor-ID"); v != "" {
		return v
	}
	return "system"
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (a *API) writeResult(w http.ResponseWriter, v any, err error) {
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ledger.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		// StorageError text is already sanitized
		a.log.Error("ledger operation failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (a *API) adjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   int64  `json:"productId"`
		WarehouseID int64  `json:"warehouseId"`
		QtyChange   int    `json:"qtyChange"`
		Reason      string `json:"reason"`
		Note        string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := a.engine.Adjust(r.Context(), ledger.AdjustParams{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		QtyChange:   req.QtyChange,
		Reason:      req.Reason,
		Note:        req.Note,
		Actor:       actor(r),
	})
	a.writeResult(w, snap, err)
}

func (a *API) reserve(w http.ResponseWriter, r *http.Request) {
	a.reserveOrRelease(w, r, a.engine.Reserve)
}

func (a *API) release(w http.ResponseWriter, r *http.Request) {
	a.reserveOrRelease(w, r, a.engine.Release)
}

func (a *API) reserveOrRelease(w http.ResponseWriter, r *http.Request, op func(context.Context, ledger.ReserveParams) (ledger.Snapshot, error)) {
	var req struct {
		ProductID     int64  `json:"productId"`
		WarehouseID   int64  `json:"warehouseId"`
		Qty           int    `json:"qty"`
		ReferenceType string `json:"referenceType"`
		ReferenceID   string `json:"referenceId"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := op(r.Context(), ledger.ReserveParams{
		ProductID:     req.ProductID,
		WarehouseID:   req.WarehouseID,
		Qty:           req.Qty,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Actor:         actor(r),
	})
	a.writeResult(w, snap, err)
}

func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID       int64  `json:"productId"`
		FromWarehouseID int64  `json:"fromWarehouseId"`
		ToWarehouseID   int64  `json:"toWarehouseId"`
		Qty             int    `json:"qty"`
		Note            string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	from, to, err := a.engine.Transfer(r.Context(), ledger.TransferParams{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Qty:             req.Qty,
		Note:            req.Note,
		Actor:           actor(r),
	})
	a.writeResult(w, map[string]ledger.Snapshot{"from": from, "to": to}, err)
}

func (a *API) updateReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID    int64 `json:"productId"`
		WarehouseID  int64 `json:"warehouseId"`
		ReorderLevel int   `json:"reorderLevel"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := a.engine.UpdateReorder(r.Context(), ledger.UpdateReorderParams{
		ProductID:    req.ProductID,
		WarehouseID:  req.WarehouseID,
		ReorderLevel: req.ReorderLevel,
		Actor:        actor(r),
	})
	a.writeResult(w, snap, err)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	warehouseID, _ := strconv.ParseInt(q.Get("warehouseId"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))

	rows, total, err := a.queries.List(r.Context(), ledger.ListFilter{
		Search:      q.Get("search"),
		WarehouseID: warehouseID,
		Status:      ledger.Status(q.Get("status")),
		Page:        page,
		PageSize:    size,
	})
	a.writeResult(w, map[string]any{"items": rows, "total": total}, err)
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.queries.Summarize(r.Context())
	a.writeResult(w, sum, err)
}

func (a *API) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID, _ := strconv.ParseInt(q.Get("productId"), 10, 64)
	warehouseID, _ := strconv.ParseInt(q.Get("warehouseId"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	rows, err := a.movements.Query(r.Context(), ledger.MovementFilter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        q.Get("type"),
	}, limit)
	a.writeResult(w, rows, err)
}
