package model

import "time"

// Status is the appointment lifecycle state. The set of legal transitions
// lives in the lifecycle package; nothing else should assign Status directly.
type Status string

const (
	StatusPending             Status = "pending"
	StatusConfirmed           Status = "confirmed"
	StatusRescheduleRequested Status = "reschedule_requested"
	StatusCancelRequested     Status = "cancel_requested"
	StatusCompleted           Status = "completed"
	StatusMissed              Status = "missed"
	// StatusCancelled is a legacy terminal state. It is accepted as input for
	// backward compatibility, but the cancel-approval path hard-deletes the
	// row instead of producing it.
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusRescheduleRequested,
		StatusCancelRequested, StatusCompleted, StatusMissed, StatusCancelled:
		return Status(raw), true
	default:
		return "", false
	}
}

// Appointment is the one stateful entity of the system. Date carries the
// civil date (midnight UTC); TimeSlot is the clock time normalized to
// minute granularity ("15:04").
//
// The Proposed* fields are populated only while Status is
// reschedule_requested; CancelReason/CancelRequestedAt only while
// cancel_requested. The lifecycle package maintains those invariants.
type Appointment struct {
	ID        string
	PatientID string
	DentistID *string
	ServiceID *string
	Date      time.Time
	TimeSlot  string
	Status    Status
	Notes     string

	ProposedDate      *time.Time
	ProposedTime      *string
	ProposedServiceID *string
	ProposedDentistID *string
	ProposedNotes     *string

	CancelReason      *string
	CancelRequestedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined for responses and event payloads; not columns of appointments.
	PatientName string
	ServiceName string
}
