package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/warebase/backoffice/internal/domain/catalog"
)

// Catalogue CRUD: plain single-row reads/writes, no locking involved.
// The reorder point is deliberately absent here — it changes only through
// the ledger engine's reorder-point operation.
type CatalogAPI struct {
	repo *catalog.Repo
}

func NewCatalogAPI(repo *catalog.Repo) *CatalogAPI { return &CatalogAPI{repo: repo} }

func (c *CatalogAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /products", c.createProduct)
	mux.HandleFunc("GET /products/{id}", c.getProduct)
	mux.HandleFunc("GET /products", c.searchProducts)
	mux.HandleFunc("PUT /products/{id}/price", c.updatePrice)
	mux.HandleFunc("POST /warehouses", c.createWarehouse)
	mux.HandleFunc("GET /warehouses", c.listWarehouses)
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (c *CatalogAPI) createProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU          string  `json:"sku"`
		Name         string  `json:"name"`
		UnitPrice    float64 `json:"unitPrice"`
		ReorderPoint int     `json:"reorderPoint"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SKU == "" || req.Name == "" {
		http.Error(w, "sku and name are required", http.StatusBadRequest)
		return
	}
	p, err := c.repo.CreateProduct(r.Context(), req.SKU, req.Name, req.UnitPrice, req.ReorderPoint)
	writeJSON(w, p, err)
}

func (c *CatalogAPI) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}
	p, err := c.repo.GetProduct(r.Context(), id)
	if p == nil && err == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, p, err)
}

func (c *CatalogAPI) searchProducts(w http.ResponseWriter, r *http.Request) {
	items, err := c.repo.SearchProducts(r.Context(), r.URL.Query().Get("q"), true)
	writeJSON(w, map[string]any{"items": items}, err)
}

func (c *CatalogAPI) updatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}
	var req struct {
		UnitPrice float64 `json:"unitPrice"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := c.repo.UpdatePrice(r.Context(), id, req.UnitPrice)
	writeJSON(w, p, err)
}

func (c *CatalogAPI) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	wh, err := c.repo.CreateWarehouse(r.Context(), req.Name)
	writeJSON(w, wh, err)
}

func (c *CatalogAPI) listWarehouses(w http.ResponseWriter, r *http.Request) {
	items, err := c.repo.ListWarehouses(r.Context())
	writeJSON(w, map[string]any{"items": items}, err)
}
