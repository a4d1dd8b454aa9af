package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// ServiceHandler is the treatment catalogue. Reads are open to any
// authenticated user; writes are staff-only (enforced at the router).
type ServiceHandler struct {
	repo *storage.ServiceRepository
}

func NewServiceHandler(repo *storage.ServiceRepository) *ServiceHandler {
	return &ServiceHandler{repo: repo}
}

type serviceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toServiceResponse(s model.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type serviceRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		validationError(w, "name required")
		return
	}
	svc := &model.Service{Name: req.Name, Category: strings.TrimSpace(req.Category), Description: req.Description}
	if err := h.repo.Create(r.Context(), svc); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceResponse(*svc))
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.List(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	items := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		items = append(items, toServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, items)
}

// ByCategory groups the catalogue by category for menu-style UIs.
func (h *ServiceHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.List(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	grouped := make(map[string][]serviceResponse)
	for _, s := range services {
		category := s.Category
		if category == "" {
			category = "uncategorized"
		}
		grouped[category] = append(grouped[category], toServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, grouped)
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "service not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		validationError(w, "name required")
		return
	}
	svc := &model.Service{ID: r.PathValue("id"), Name: req.Name, Category: strings.TrimSpace(req.Category), Description: req.Description}
	if err := h.repo.Update(r.Context(), svc); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "service not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toServiceResponse(*svc))
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "service not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
}
