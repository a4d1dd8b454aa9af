package handlers

import (
	"net/http"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// UserHandler exposes the staff-facing directory views.
type UserHandler struct {
	repo *storage.UserRepository
}

func NewUserHandler(repo *storage.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

type patientResponse struct {
	userResponse
	LastAppointmentDate *string `json:"last_appointment_date"`
	ActivePatient       bool    `json:"active_patient"`
}

// ListPatients serves the patient directory with the activity flag: a
// patient is active when their latest appointment falls within the last two
// years, derived from the appointment history at read time.
func (h *UserHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context())
	if err != nil {
		internalError(w)
		return
	}
	now := time.Now().UTC()
	items := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		item := patientResponse{
			userResponse:  toUserResponse(p.User),
			ActivePatient: model.ActivePatient(p.LastAppointment, now),
		}
		if p.LastAppointment != nil {
			d := p.LastAppointment.Format("2006-01-02")
			item.LastAppointmentDate = &d
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *UserHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	h.listByRoles(w, r, "staff", "owner")
}

func (h *UserHandler) listByRoles(w http.ResponseWriter, r *http.Request, roles ...string) {
	users, err := h.repo.ListByRoles(r.Context(), roles...)
	if err != nil {
		internalError(w)
		return
	}
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, items)
}
