package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// LocationHandler manages clinic branches. Reads are public (the list feeds
// the marketing site's map); writes are staff-only at the router.
type LocationHandler struct {
	repo *storage.LocationRepository
}

func NewLocationHandler(repo *storage.LocationRepository) *LocationHandler {
	return &LocationHandler{repo: repo}
}

type locationResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func toLocationResponse(l model.ClinicLocation) locationResponse {
	return locationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		Phone:     l.Phone,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

type locationRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (req *locationRequest) validate() (string, bool) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Address == "" {
		return "name and address required", false
	}
	return "", true
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if msg, ok := req.validate(); !ok {
		validationError(w, msg)
		return
	}
	loc := &model.ClinicLocation{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.repo.Create(r.Context(), loc); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toLocationResponse(*loc))
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repo.List(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	items := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		items = append(items, toLocationResponse(l))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	loc, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "location not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if msg, ok := req.validate(); !ok {
		validationError(w, msg)
		return
	}
	loc := &model.ClinicLocation{
		ID:        r.PathValue("id"),
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.repo.Update(r.Context(), loc); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "location not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(*loc))
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "location not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
}
