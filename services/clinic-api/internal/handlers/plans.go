package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/timeslot"
)

// PlanHandler serves multi-visit treatment plans. Patients read their own
// plans; staff read and write everything.
type PlanHandler struct {
	repo *storage.PlanRepository
}

func NewPlanHandler(repo *storage.PlanRepository) *PlanHandler {
	return &PlanHandler{repo: repo}
}

type planResponse struct {
	ID          string  `json:"id"`
	PatientID   string  `json:"patient_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Status      string  `json:"status"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

func toPlanResponse(p model.TreatmentPlan) planResponse {
	resp := planResponse{
		ID:          p.ID,
		PatientID:   p.PatientID,
		Title:       p.Title,
		Description: p.Description,
		StartDate:   p.StartDate.Format("2006-01-02"),
		Status:      p.Status,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.EndDate != nil {
		d := p.EndDate.Format("2006-01-02")
		resp.EndDate = &d
	}
	return resp
}

type planRequest struct {
	PatientID   string `json:"patient_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
}

// parsePlan validates the request body into plan fields. An empty status
// defaults to planned; an end date, when given, must not precede the start.
func parsePlan(req planRequest) (model.TreatmentPlan, string, bool) {
	var p model.TreatmentPlan

	p.Title = strings.TrimSpace(req.Title)
	if p.Title == "" {
		return p, "title required", false
	}
	p.Description = strings.TrimSpace(req.Description)

	start, err := timeslot.ParseDate(strings.TrimSpace(req.StartDate))
	if err != nil {
		return p, "start_date must be YYYY-MM-DD", false
	}
	p.StartDate = start

	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		end, err := timeslot.ParseDate(raw)
		if err != nil {
			return p, "end_date must be YYYY-MM-DD", false
		}
		if end.Before(start) {
			return p, "end_date must not precede start_date", false
		}
		p.EndDate = &end
	}

	p.Status = model.PlanStatusPlanned
	if req.Status != "" {
		status, ok := model.ParsePlanStatus(req.Status)
		if !ok {
			return p, "status must be planned, ongoing or completed", false
		}
		p.Status = status
	}
	return p, "", true
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if req.PatientID == "" {
		validationError(w, "patient_id required")
		return
	}
	plan, msg, ok := parsePlan(req)
	if !ok {
		validationError(w, msg)
		return
	}
	plan.PatientID = req.PatientID
	plan.CreatedBy = claims.Sub

	if err := h.repo.Create(r.Context(), &plan); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	patientID := r.URL.Query().Get("patient_id")
	if !claims.IsStaff() {
		patientID = claims.Sub
	}
	plans, err := h.repo.ListByPatient(r.Context(), patientID)
	if err != nil {
		internalError(w)
		return
	}
	items := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	plan, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "treatment plan not found")
			return
		}
		internalError(w)
		return
	}
	if !claims.IsStaff() && plan.PatientID != claims.Sub {
		authorizationError(w, "not your treatment plan")
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}

	existing, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "treatment plan not found")
			return
		}
		internalError(w)
		return
	}

	plan, msg, ok := parsePlan(req)
	if !ok {
		validationError(w, msg)
		return
	}
	plan.ID = existing.ID
	plan.PatientID = existing.PatientID
	plan.CreatedBy = existing.CreatedBy
	plan.CreatedAt = existing.CreatedAt

	if err := h.repo.Update(r.Context(), &plan); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "treatment plan not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
}
