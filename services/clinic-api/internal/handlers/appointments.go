package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/lifecycle"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/outbox"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/timeslot"
)

// AppointmentHandler owns booking, the lifecycle action endpoints and the
// schedule views. Every state change runs inside one transaction holding a
// row lock, with outbox events written in the same transaction.
type AppointmentHandler struct {
	repo     *storage.AppointmentRepository
	users    *storage.UserRepository
	services *storage.ServiceRepository
	records  *storage.RecordRepository
	outbox   *outbox.Repository
	logger   *slog.Logger
}

func NewAppointmentHandler(repo *storage.AppointmentRepository, users *storage.UserRepository, services *storage.ServiceRepository, records *storage.RecordRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		repo:     repo,
		users:    users,
		services: services,
		records:  records,
		outbox:   outboxRepo,
		logger:   logger,
	}
}

type appointmentResponse struct {
	ID                string  `json:"id"`
	PatientID         string  `json:"patient_id"`
	PatientName       string  `json:"patient_name,omitempty"`
	DentistID         *string `json:"dentist_id"`
	ServiceID         *string `json:"service_id"`
	ServiceName       string  `json:"service_name,omitempty"`
	Date              string  `json:"date"`
	TimeSlot          string  `json:"time_slot"`
	Status            string  `json:"status"`
	Notes             string  `json:"notes,omitempty"`
	ProposedDate      *string `json:"proposed_date,omitempty"`
	ProposedTime      *string `json:"proposed_time,omitempty"`
	ProposedServiceID *string `json:"proposed_service_id,omitempty"`
	ProposedDentistID *string `json:"proposed_dentist_id,omitempty"`
	ProposedNotes     *string `json:"proposed_notes,omitempty"`
	CancelReason      *string `json:"cancel_reason,omitempty"`
	CancelRequestedAt *string `json:"cancel_requested_at,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:                a.ID,
		PatientID:         a.PatientID,
		PatientName:       a.PatientName,
		DentistID:         a.DentistID,
		ServiceID:         a.ServiceID,
		ServiceName:       a.ServiceName,
		Date:              a.Date.Format("2006-01-02"),
		TimeSlot:          a.TimeSlot,
		Status:            string(a.Status),
		Notes:             a.Notes,
		ProposedServiceID: a.ProposedServiceID,
		ProposedDentistID: a.ProposedDentistID,
		ProposedNotes:     a.ProposedNotes,
		CancelReason:      a.CancelReason,
		ProposedTime:      a.ProposedTime,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.ProposedDate != nil {
		d := a.ProposedDate.Format("2006-01-02")
		resp.ProposedDate = &d
	}
	if a.CancelRequestedAt != nil {
		t := a.CancelRequestedAt.UTC().Format(time.RFC3339)
		resp.CancelRequestedAt = &t
	}
	return resp
}

type createAppointmentRequest struct {
	PatientID string  `json:"patient_id"`
	DentistID *string `json:"dentist_id"`
	ServiceID *string `json:"service_id"`
	Date      string  `json:"date"`
	TimeSlot  string  `json:"time_slot"`
	Notes     string  `json:"notes"`
}

// Create books a new appointment in the pending state. Patients book for
// themselves; staff may pass patient_id to book on a patient's behalf.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}

	patientID := claims.Sub
	if req.PatientID != "" && req.PatientID != claims.Sub {
		if !claims.IsStaff() {
			authorizationError(w, "patients may only book for themselves")
			return
		}
		patientID = req.PatientID
	}

	date, err := timeslot.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		validationError(w, "date must be YYYY-MM-DD")
		return
	}
	slot, err := timeslot.NormalizeClock(strings.TrimSpace(req.TimeSlot))
	if err != nil {
		validationError(w, "time_slot must be HH:MM")
		return
	}

	ctx := r.Context()
	appt := &model.Appointment{
		PatientID: patientID,
		DentistID: req.DentistID,
		ServiceID: req.ServiceID,
		Date:      date,
		TimeSlot:  slot,
		Status:    model.StatusPending,
		Notes:     strings.TrimSpace(req.Notes),
	}

	patient, err := h.users.Get(ctx, patientID)
	if err != nil {
		if storage.IsNotFound(err) {
			validationError(w, "unknown patient")
			return
		}
		internalError(w)
		return
	}
	appt.PatientName = patient.FullName

	if req.ServiceID != nil {
		svc, err := h.services.Get(ctx, *req.ServiceID)
		if err != nil {
			if storage.IsNotFound(err) {
				validationError(w, "unknown service")
				return
			}
			internalError(w)
			return
		}
		appt.ServiceName = svc.Name
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	busy, err := h.repo.HasSlotConflict(ctx, tx, appt.Date, appt.TimeSlot, appt.DentistID, "")
	if err != nil {
		internalError(w)
		return
	}
	if busy {
		conflictError(w, "time slot is already booked")
		return
	}

	if err := h.repo.Create(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			conflictError(w, "time slot is already booked")
			return
		}
		internalError(w)
		return
	}

	if err := h.insertEvent(ctx, tx, outbox.TopicBooked, appt); err != nil {
		internalError(w)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
}

// List serves the appointment collection. Staff see everything and may
// filter; patients are always scoped to their own rows.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	f := storage.ListFilter{}
	if claims.IsStaff() {
		f.PatientID = r.URL.Query().Get("patient_id")
	} else {
		f.PatientID = claims.Sub
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			validationError(w, "unknown status filter")
			return
		}
		f.Status = status
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := timeslot.ParseDate(raw)
		if err != nil {
			validationError(w, "date must be YYYY-MM-DD")
			return
		}
		f.Date = &date
	}

	appts, err := h.repo.List(r.Context(), f)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(appts))
}

// Today returns the clinic's active schedule for the current date.
func (h *AppointmentHandler) Today(w http.ResponseWriter, r *http.Request) {
	today := midnightUTC(time.Now())
	appts, err := h.repo.ListToday(r.Context(), today)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(appts))
}

// Upcoming returns the caller's future active appointments.
func (h *AppointmentHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	appts, err := h.repo.ListUpcoming(r.Context(), claims.Sub, midnightUTC(time.Now()))
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(appts))
}

// bookedSlotItem deliberately omits patient identity; any authenticated user
// may query booked slots.
type bookedSlotItem struct {
	Date      string  `json:"date"`
	TimeSlot  string  `json:"time_slot"`
	DentistID *string `json:"dentist_id"`
}

// BookedSlots lists occupied slots on a date so booking UIs can grey them out.
func (h *AppointmentHandler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	date, err := timeslot.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		validationError(w, "date must be YYYY-MM-DD")
		return
	}
	slots, err := h.repo.BookedSlots(r.Context(), date)
	if err != nil {
		internalError(w)
		return
	}
	day := date.Format("2006-01-02")
	items := make([]bookedSlotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, bookedSlotItem{Date: day, TimeSlot: s.TimeSlot, DentistID: s.DentistID})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	appt, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}
	if !claims.IsStaff() && appt.PatientID != claims.Sub {
		authorizationError(w, "not your appointment")
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

type updateAppointmentRequest struct {
	DentistID *string `json:"dentist_id"`
	ServiceID *string `json:"service_id"`
	Date      string  `json:"date"`
	TimeSlot  string  `json:"time_slot"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes"`
}

// Update lets staff move or annotate an appointment directly, including
// forcing a status. Patient-initiated changes go through the action
// endpoints instead.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}

	if req.Date != "" {
		date, err := timeslot.ParseDate(req.Date)
		if err != nil {
			validationError(w, "date must be YYYY-MM-DD")
			return
		}
		appt.Date = date
	}
	if req.TimeSlot != "" {
		slot, err := timeslot.NormalizeClock(req.TimeSlot)
		if err != nil {
			validationError(w, "time_slot must be HH:MM")
			return
		}
		appt.TimeSlot = slot
	}
	if req.DentistID != nil {
		appt.DentistID = req.DentistID
	}
	if req.ServiceID != nil {
		appt.ServiceID = req.ServiceID
	}
	if req.Status != "" {
		status, ok := model.ParseStatus(req.Status)
		if !ok {
			validationError(w, "unknown status")
			return
		}
		appt.Status = status
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	// The moved slot must be free, ignoring the row being moved.
	busy, err := h.repo.HasSlotConflict(ctx, tx, appt.Date, appt.TimeSlot, appt.DentistID, appt.ID)
	if err != nil {
		internalError(w)
		return
	}
	if busy {
		conflictError(w, "time slot is already booked")
		return
	}

	if err := h.repo.Update(ctx, tx, &appt); err != nil {
		if storage.IsConflict(err) {
			conflictError(w, "time slot is already booked")
			return
		}
		internalError(w)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Delete is the staff hard-delete, separate from the patient cancel flow.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := r.PathValue("id")
	if err := h.repo.Delete(ctx, tx, id); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type rescheduleRequest struct {
	Date      string  `json:"date"`
	TimeSlot  string  `json:"time_slot"`
	ServiceID *string `json:"service_id"`
	DentistID *string `json:"dentist_id"`
	Notes     string  `json:"notes"`
}

// RequestReschedule records a patient's proposed new slot; the booking keeps
// its current slot until staff approve.
func (h *AppointmentHandler) RequestReschedule(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	date, err := timeslot.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		validationError(w, "date must be YYYY-MM-DD")
		return
	}
	slot, err := timeslot.NormalizeClock(strings.TrimSpace(req.TimeSlot))
	if err != nil {
		validationError(w, "time_slot must be HH:MM")
		return
	}

	proposal := lifecycle.Proposal{
		Date:      date,
		TimeSlot:  slot,
		ServiceID: req.ServiceID,
		DentistID: req.DentistID,
		Notes:     strings.TrimSpace(req.Notes),
	}
	h.transition(w, r, func(a *model.Appointment, now time.Time) error {
		return lifecycle.RequestReschedule(a, claims.Sub, proposal, now)
	}, outbox.TopicRescheduleRequested)
}

// ApproveReschedule applies the pending proposal. The new slot gets the same
// conflict check a fresh booking would.
func (h *AppointmentHandler) ApproveReschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}

	now := time.Now().UTC()
	if err := lifecycle.ApproveReschedule(&appt, now); err != nil {
		writeLifecycleError(w, err)
		return
	}

	busy, err := h.repo.HasSlotConflict(ctx, tx, appt.Date, appt.TimeSlot, appt.DentistID, appt.ID)
	if err != nil {
		internalError(w)
		return
	}
	if busy {
		conflictError(w, "proposed time slot is already booked")
		return
	}

	if err := h.repo.Update(ctx, tx, &appt); err != nil {
		if storage.IsConflict(err) {
			conflictError(w, "proposed time slot is already booked")
			return
		}
		internalError(w)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) RejectReschedule(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a *model.Appointment, now time.Time) error {
		return lifecycle.RejectReschedule(a, now)
	}, "")
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) RequestCancel(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	h.transition(w, r, func(a *model.Appointment, now time.Time) error {
		return lifecycle.RequestCancel(a, claims.Sub, strings.TrimSpace(req.Reason), now)
	}, outbox.TopicCancelRequested)
}

// ApproveCancel removes the appointment entirely. The cancelled event is
// written before the delete, in the same transaction.
func (h *AppointmentHandler) ApproveCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}

	if err := lifecycle.ApproveCancel(&appt); err != nil {
		writeLifecycleError(w, err)
		return
	}

	if err := h.insertEvent(ctx, tx, outbox.TopicCancelled, &appt); err != nil {
		internalError(w)
		return
	}
	if err := h.repo.Delete(ctx, tx, appt.ID); err != nil {
		internalError(w)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": appt.ID, "deleted": true})
}

func (h *AppointmentHandler) RejectCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a *model.Appointment, now time.Time) error {
		return lifecycle.RejectCancel(a, now)
	}, "")
}

type completeRequest struct {
	Treatment string `json:"treatment"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
}

// Complete marks the appointment done and files a dental record in the same
// transaction.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req completeRequest
	if r.Body != nil {
		// Body is optional; a bare POST completes with the default record.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}

	now := time.Now().UTC()
	if err := lifecycle.Complete(&appt, now); err != nil {
		writeLifecycleError(w, err)
		return
	}
	if err := h.repo.Update(ctx, tx, &appt); err != nil {
		internalError(w)
		return
	}

	rec := lifecycle.CompletionRecord(&appt, strings.TrimSpace(req.Treatment), claims.Sub, now)
	rec.Diagnosis = strings.TrimSpace(req.Diagnosis)
	rec.Notes = strings.TrimSpace(req.Notes)
	if err := h.records.CreateTx(ctx, tx, &rec); err != nil {
		internalError(w)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a *model.Appointment, now time.Time) error {
		return lifecycle.MarkMissed(a, now)
	}, "")
}

// transition is the shared lock-apply-persist flow for actions that neither
// re-check slot conflicts nor delete the row. eventType "" skips the outbox.
func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(*model.Appointment, time.Time) error, eventType string) {
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		internalError(w)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "appointment not found")
			return
		}
		internalError(w)
		return
	}

	if err := apply(&appt, time.Now().UTC()); err != nil {
		writeLifecycleError(w, err)
		return
	}
	if err := h.repo.Update(ctx, tx, &appt); err != nil {
		h.logger.Error("appointment update failed", "appointment_id", appt.ID, "err", err)
		internalError(w)
		return
	}
	if eventType != "" {
		if err := h.insertEvent(ctx, tx, eventType, &appt); err != nil {
			h.logger.Error("outbox insert failed", "appointment_id", appt.ID, "event_type", eventType, "err", err)
			internalError(w)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, a *model.Appointment) error {
	evt, err := outbox.AppointmentEvent(eventType, a, time.Now().UTC())
	if err != nil {
		return err
	}
	return h.outbox.Insert(ctx, tx, evt)
}

func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotOwner):
		authorizationError(w, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrNoProposal):
		conflictError(w, err.Error())
	default:
		internalError(w)
	}
}

func listResponse(appts []model.Appointment) []appointmentResponse {
	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentResponse(a))
	}
	return items
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
