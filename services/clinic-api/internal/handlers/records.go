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

// RecordHandler serves dental records. Patients read their own history;
// staff read and write everything.
type RecordHandler struct {
	repo *storage.RecordRepository
}

func NewRecordHandler(repo *storage.RecordRepository) *RecordHandler {
	return &RecordHandler{repo: repo}
}

type recordResponse struct {
	ID            string  `json:"id"`
	PatientID     string  `json:"patient_id"`
	AppointmentID *string `json:"appointment_id,omitempty"`
	Treatment     string  `json:"treatment"`
	Diagnosis     string  `json:"diagnosis,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
}

func toRecordResponse(rec model.DentalRecord) recordResponse {
	return recordResponse{
		ID:            rec.ID,
		PatientID:     rec.PatientID,
		AppointmentID: rec.AppointmentID,
		Treatment:     rec.Treatment,
		Diagnosis:     rec.Diagnosis,
		Notes:         rec.Notes,
		CreatedBy:     rec.CreatedBy,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type recordRequest struct {
	PatientID     string  `json:"patient_id"`
	AppointmentID *string `json:"appointment_id"`
	Treatment     string  `json:"treatment"`
	Diagnosis     string  `json:"diagnosis"`
	Notes         string  `json:"notes"`
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	req.Treatment = strings.TrimSpace(req.Treatment)
	if req.PatientID == "" || req.Treatment == "" {
		validationError(w, "patient_id and treatment required")
		return
	}

	rec := &model.DentalRecord{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Treatment:     req.Treatment,
		Diagnosis:     strings.TrimSpace(req.Diagnosis),
		Notes:         strings.TrimSpace(req.Notes),
		CreatedBy:     claims.Sub,
	}
	if err := h.repo.Create(r.Context(), rec); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(*rec))
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	patientID := r.URL.Query().Get("patient_id")
	if !claims.IsStaff() {
		patientID = claims.Sub
	}
	records, err := h.repo.ListByPatient(r.Context(), patientID)
	if err != nil {
		internalError(w)
		return
	}
	items := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	rec, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "record not found")
			return
		}
		internalError(w)
		return
	}
	if !claims.IsStaff() && rec.PatientID != claims.Sub {
		authorizationError(w, "not your record")
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	req.Treatment = strings.TrimSpace(req.Treatment)
	if req.Treatment == "" {
		validationError(w, "treatment required")
		return
	}

	rec, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "record not found")
			return
		}
		internalError(w)
		return
	}
	rec.Treatment = req.Treatment
	rec.Diagnosis = strings.TrimSpace(req.Diagnosis)
	rec.Notes = strings.TrimSpace(req.Notes)
	if err := h.repo.Update(r.Context(), &rec); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "record not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "deleted": true})
}
