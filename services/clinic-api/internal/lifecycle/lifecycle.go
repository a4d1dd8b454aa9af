// Package lifecycle is the appointment state machine: an explicit transition
// table (event x allowed source states -> target state) plus the guarded
// mutations each transition performs. Handlers load a row, apply a transition
// here, and persist the result inside the same transaction; they never touch
// Status themselves.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type Event string

const (
	EventRequestReschedule Event = "request_reschedule"
	EventApproveReschedule Event = "approve_reschedule"
	EventRejectReschedule  Event = "reject_reschedule"
	EventRequestCancel     Event = "request_cancel"
	EventApproveCancel     Event = "approve_cancel"
	EventRejectCancel      Event = "reject_cancel"
	EventComplete          Event = "mark_completed"
	EventMarkMissed        Event = "mark_missed"
	EventAutoMiss          Event = "auto_miss"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrNotOwner          = errors.New("only the appointment's patient may request this")
	ErrNoProposal        = errors.New("appointment has no pending reschedule proposal")
)

type transition struct {
	from map[model.Status]bool
	to   model.Status
}

func states(ss ...model.Status) map[model.Status]bool {
	m := make(map[model.Status]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

var transitions = map[Event]transition{
	EventRequestReschedule: {
		from: states(model.StatusPending, model.StatusConfirmed, model.StatusRescheduleRequested, model.StatusMissed),
		to:   model.StatusRescheduleRequested,
	},
	EventApproveReschedule: {
		from: states(model.StatusRescheduleRequested),
		to:   model.StatusConfirmed,
	},
	EventRejectReschedule: {
		from: states(model.StatusRescheduleRequested),
		to:   model.StatusConfirmed,
	},
	EventRequestCancel: {
		from: states(model.StatusPending, model.StatusConfirmed, model.StatusRescheduleRequested, model.StatusCancelRequested, model.StatusMissed),
		to:   model.StatusCancelRequested,
	},
	// Approval deletes the row; the target state is never persisted.
	EventApproveCancel: {
		from: states(model.StatusCancelRequested),
		to:   model.StatusCancelled,
	},
	EventRejectCancel: {
		from: states(model.StatusCancelRequested),
		to:   model.StatusConfirmed,
	},
	EventComplete: {
		from: states(model.StatusPending, model.StatusConfirmed, model.StatusRescheduleRequested, model.StatusCancelRequested, model.StatusMissed),
		to:   model.StatusCompleted,
	},
	EventMarkMissed: {
		from: states(model.StatusPending, model.StatusConfirmed, model.StatusRescheduleRequested, model.StatusCancelRequested),
		to:   model.StatusMissed,
	},
	EventAutoMiss: {
		from: states(model.StatusConfirmed, model.StatusRescheduleRequested, model.StatusCancelRequested),
		to:   model.StatusMissed,
	},
}

// Next returns the target state for applying event to state, or
// ErrInvalidTransition when the edge is not in the table.
func Next(s model.Status, e Event) (model.Status, error) {
	t, ok := transitions[e]
	if !ok || !t.from[s] {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, e, s)
	}
	return t.to, nil
}

// Proposal is a patient's requested change, held on the row until staff
// approve or reject it.
type Proposal struct {
	Date      time.Time
	TimeSlot  string
	ServiceID *string
	DentistID *string
	Notes     string
}

func RequestReschedule(a *model.Appointment, actorID string, p Proposal, now time.Time) error {
	if a.PatientID != actorID {
		return ErrNotOwner
	}
	next, err := Next(a.Status, EventRequestReschedule)
	if err != nil {
		return err
	}
	a.Status = next
	a.ProposedDate = &p.Date
	slot := p.TimeSlot
	a.ProposedTime = &slot
	a.ProposedServiceID = p.ServiceID
	a.ProposedDentistID = p.DentistID
	if p.Notes != "" {
		notes := p.Notes
		a.ProposedNotes = &notes
	} else {
		a.ProposedNotes = nil
	}
	a.UpdatedAt = now
	return nil
}

// ApproveReschedule copies the pending proposal into the primary slot fields
// and clears it. Callers must re-run the booking-conflict check against the
// new slot before persisting.
func ApproveReschedule(a *model.Appointment, now time.Time) error {
	next, err := Next(a.Status, EventApproveReschedule)
	if err != nil {
		return err
	}
	if a.ProposedDate == nil || a.ProposedTime == nil {
		return ErrNoProposal
	}
	a.Date = *a.ProposedDate
	a.TimeSlot = *a.ProposedTime
	if a.ProposedServiceID != nil {
		a.ServiceID = a.ProposedServiceID
	}
	if a.ProposedDentistID != nil {
		a.DentistID = a.ProposedDentistID
	}
	if a.ProposedNotes != nil {
		a.Notes = *a.ProposedNotes
	}
	clearProposal(a)
	a.Status = next
	a.UpdatedAt = now
	return nil
}

func RejectReschedule(a *model.Appointment, now time.Time) error {
	next, err := Next(a.Status, EventRejectReschedule)
	if err != nil {
		return err
	}
	clearProposal(a)
	a.Status = next
	a.UpdatedAt = now
	return nil
}

func RequestCancel(a *model.Appointment, actorID, reason string, now time.Time) error {
	if a.PatientID != actorID {
		return ErrNotOwner
	}
	next, err := Next(a.Status, EventRequestCancel)
	if err != nil {
		return err
	}
	a.Status = next
	a.CancelReason = &reason
	requestedAt := now
	a.CancelRequestedAt = &requestedAt
	a.UpdatedAt = now
	return nil
}

// ApproveCancel only validates the transition; the caller hard-deletes the
// row. No cancelled row is ever persisted.
func ApproveCancel(a *model.Appointment) error {
	_, err := Next(a.Status, EventApproveCancel)
	return err
}

func RejectCancel(a *model.Appointment, now time.Time) error {
	next, err := Next(a.Status, EventRejectCancel)
	if err != nil {
		return err
	}
	a.CancelReason = nil
	a.CancelRequestedAt = nil
	a.Status = next
	a.UpdatedAt = now
	return nil
}

func Complete(a *model.Appointment, now time.Time) error {
	next, err := Next(a.Status, EventComplete)
	if err != nil {
		return err
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

func MarkMissed(a *model.Appointment, now time.Time) error {
	next, err := Next(a.Status, EventMarkMissed)
	if err != nil {
		return err
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

// CompletionRecord builds the dental record created alongside a completion.
// When treatment is empty the text defaults to "Completed: <service name>",
// falling back to General Consultation for appointments without a service.
func CompletionRecord(a *model.Appointment, treatment, createdBy string, now time.Time) model.DentalRecord {
	if treatment == "" {
		name := a.ServiceName
		if name == "" {
			name = "General Consultation"
		}
		treatment = "Completed: " + name
	}
	apptID := a.ID
	return model.DentalRecord{
		PatientID:     a.PatientID,
		AppointmentID: &apptID,
		Treatment:     treatment,
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}
}

func clearProposal(a *model.Appointment) {
	a.ProposedDate = nil
	a.ProposedTime = nil
	a.ProposedServiceID = nil
	a.ProposedDentistID = nil
	a.ProposedNotes = nil
}
