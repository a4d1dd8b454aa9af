package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// InventoryHandler is the clinic supplies tracker, staff-only end to end.
type InventoryHandler struct {
	repo *storage.InventoryRepository
}

func NewInventoryHandler(repo *storage.InventoryRepository) *InventoryHandler {
	return &InventoryHandler{repo: repo}
}

type inventoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity"`
	MinStock  int    `json:"min_stock"`
	Supplier  string `json:"supplier,omitempty"`
	CostCents int64  `json:"cost_cents"`
	LowStock  bool   `json:"low_stock"`
	UpdatedAt string `json:"updated_at"`
}

func toInventoryResponse(item model.InventoryItem) inventoryResponse {
	return inventoryResponse{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		Quantity:  item.Quantity,
		MinStock:  item.MinStock,
		Supplier:  item.Supplier,
		CostCents: item.CostCents,
		LowStock:  item.LowStock(),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type inventoryRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	MinStock  int    `json:"min_stock"`
	Supplier  string `json:"supplier"`
	CostCents int64  `json:"cost_cents"`
}

func (req *inventoryRequest) validate() (string, bool) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name required", false
	}
	if req.Quantity < 0 || req.MinStock < 0 {
		return "quantity and min_stock must not be negative", false
	}
	return "", true
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if msg, ok := req.validate(); !ok {
		validationError(w, msg)
		return
	}
	item := &model.InventoryItem{
		Name:      req.Name,
		Category:  strings.TrimSpace(req.Category),
		Quantity:  req.Quantity,
		MinStock:  req.MinStock,
		Supplier:  strings.TrimSpace(req.Supplier),
		CostCents: req.CostCents,
	}
	if err := h.repo.Create(r.Context(), item); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toInventoryResponse(*item))
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// LowStock lists only items at or under their reorder threshold.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request, lowStockOnly bool) {
	items, err := h.repo.List(r.Context(), lowStockOnly)
	if err != nil {
		internalError(w)
		return
	}
	resp := make([]inventoryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toInventoryResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "inventory item not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(item))
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if msg, ok := req.validate(); !ok {
		validationError(w, msg)
		return
	}
	item := &model.InventoryItem{
		ID:        r.PathValue("id"),
		Name:      req.Name,
		Category:  strings.TrimSpace(req.Category),
		Quantity:  req.Quantity,
		MinStock:  req.MinStock,
		Supplier:  strings.TrimSpace(req.Supplier),
		CostCents: req.CostCents,
	}
	if err := h.repo.Update(r.Context(), item); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "inventory item not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(*item))
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "inventory item not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
}
