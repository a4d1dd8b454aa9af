package outbox

import (
	"encoding/json"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

// Topic name equals EventType, one event kind per topic.
const (
	TopicBooked              = "clinic.appointment.booked.v1"
	TopicRescheduleRequested = "clinic.appointment.reschedule_requested.v1"
	TopicCancelRequested     = "clinic.appointment.cancel_requested.v1"
	TopicCancelled           = "clinic.appointment.cancelled.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is the wire body of every appointment event. It carries
// enough denormalized context for consumers to compose notifications without
// calling back into this service.
type AppointmentPayload struct {
	AppointmentID string  `json:"appointment_id"`
	PatientID     string  `json:"patient_id"`
	PatientName   string  `json:"patient_name"`
	ServiceName   string  `json:"service_name,omitempty"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"time_slot"`
	Status        string  `json:"status"`
	ProposedDate  string  `json:"proposed_date,omitempty"`
	ProposedTime  string  `json:"proposed_time,omitempty"`
	CancelReason  *string `json:"cancel_reason,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

// AppointmentEvent builds the envelope for one appointment and event type.
func AppointmentEvent(eventType string, a *model.Appointment, now time.Time) (Event, error) {
	p := AppointmentPayload{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		PatientName:   a.PatientName,
		ServiceName:   a.ServiceName,
		Date:          a.Date.Format("2006-01-02"),
		TimeSlot:      a.TimeSlot,
		Status:        string(a.Status),
		CancelReason:  a.CancelReason,
		OccurredAt:    now.UTC().Format(time.RFC3339),
	}
	if a.ProposedDate != nil {
		p.ProposedDate = a.ProposedDate.Format("2006-01-02")
	}
	if a.ProposedTime != nil {
		p.ProposedTime = *a.ProposedTime
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
