package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// ToothChartHandler serves the one-chart-per-patient dental chart. Patients
// read their own chart; staff read and write any.
type ToothChartHandler struct {
	repo *storage.ToothChartRepository
}

func NewToothChartHandler(repo *storage.ToothChartRepository) *ToothChartHandler {
	return &ToothChartHandler{repo: repo}
}

type toothChartResponse struct {
	PatientID string          `json:"patient_id"`
	ChartData json.RawMessage `json:"chart_data"`
	Notes     string          `json:"notes,omitempty"`
	UpdatedAt string          `json:"updated_at"`
}

func toToothChartResponse(c model.ToothChart) toothChartResponse {
	return toothChartResponse{
		PatientID: c.PatientID,
		ChartData: c.ChartData,
		Notes:     c.Notes,
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *ToothChartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	patientID := r.PathValue("patient_id")
	if !claims.IsStaff() && patientID != claims.Sub {
		authorizationError(w, "not your chart")
		return
	}

	chart, err := h.repo.Get(r.Context(), patientID)
	if err != nil {
		if storage.IsNotFound(err) {
			// Patients without a chart yet get an empty one rather than 404.
			writeJSON(w, http.StatusOK, toothChartResponse{PatientID: patientID, ChartData: json.RawMessage(`{}`)})
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toToothChartResponse(chart))
}

type toothChartRequest struct {
	ChartData json.RawMessage `json:"chart_data"`
	Notes     string          `json:"notes"`
}

// Put replaces the patient's chart wholesale; the chart document is opaque
// to the backend beyond being valid JSON.
func (h *ToothChartHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req toothChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	chartData, ok := normalizeChartData(req.ChartData)
	if !ok {
		validationError(w, "chart_data must be a JSON value")
		return
	}

	chart := &model.ToothChart{
		PatientID: r.PathValue("patient_id"),
		ChartData: chartData,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := h.repo.Upsert(r.Context(), chart); err != nil {
		if storage.IsConflict(err) {
			validationError(w, "unknown patient")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toToothChartResponse(*chart))
}

// normalizeChartData defaults an omitted chart to the empty document and
// rejects malformed JSON.
func normalizeChartData(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return json.RawMessage(`{}`), true
	}
	if !json.Valid(raw) {
		return nil, false
	}
	return raw, true
}
