// Package fanout turns one appointment event into per-recipient notification
// rows: every staff/owner user gets their own row with a generated message.
// Delivery is best-effort; a failed recipient never fails the event.
package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caredent/clinic-backend/services/notification-service/internal/email"
	"github.com/caredent/clinic-backend/services/notification-service/internal/storage"
)

// Payload is the appointment event body as published by the clinic API.
type Payload struct {
	AppointmentID string  `json:"appointment_id"`
	PatientID     string  `json:"patient_id"`
	PatientName   string  `json:"patient_name"`
	ServiceName   string  `json:"service_name"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"time_slot"`
	Status        string  `json:"status"`
	ProposedDate  string  `json:"proposed_date"`
	ProposedTime  string  `json:"proposed_time"`
	CancelReason  *string `json:"cancel_reason"`
	Message       string  `json:"message"`
	OccurredAt    string  `json:"occurred_at"`
}

const (
	TypeNewAppointment       = "new_appointment"
	TypeRescheduleRequest    = "reschedule_request"
	TypeCancelRequest        = "cancel_request"
	TypeAppointmentCancelled = "appointment_cancelled"
)

// Compose maps an event topic to the notification type and human-readable
// message. A caller-supplied message wins over the generated one. ok is
// false for topics the fan-out does not handle.
func Compose(eventType string, p Payload) (notifType, message string, ok bool) {
	patient := p.PatientName
	if patient == "" {
		patient = "A patient"
	}

	switch eventType {
	case "clinic.appointment.booked.v1":
		notifType = TypeNewAppointment
		message = fmt.Sprintf("New appointment: %s on %s at %s", patient, p.Date, p.TimeSlot)
		if p.ServiceName != "" {
			message += " (" + p.ServiceName + ")"
		}
	case "clinic.appointment.reschedule_requested.v1":
		notifType = TypeRescheduleRequest
		message = fmt.Sprintf("%s requested to move their %s %s appointment to %s at %s", patient, p.Date, p.TimeSlot, p.ProposedDate, p.ProposedTime)
	case "clinic.appointment.cancel_requested.v1":
		notifType = TypeCancelRequest
		message = fmt.Sprintf("%s requested to cancel their appointment on %s at %s", patient, p.Date, p.TimeSlot)
		if p.CancelReason != nil && *p.CancelReason != "" {
			message += ": " + *p.CancelReason
		}
	case "clinic.appointment.cancelled.v1":
		notifType = TypeAppointmentCancelled
		message = fmt.Sprintf("Appointment for %s on %s at %s was cancelled", patient, p.Date, p.TimeSlot)
	default:
		return "", "", false
	}

	if p.Message != "" {
		message = p.Message
	}
	return notifType, message, true
}

type Fanout struct {
	repo   *storage.Repository
	sender email.Sender
	logger *slog.Logger
}

func New(repo *storage.Repository, sender email.Sender, logger *slog.Logger) *Fanout {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Fanout{repo: repo, sender: sender, logger: logger}
}

// Deliver writes one notification row per staff/owner recipient and mirrors
// the message to email. Individual recipient failures are logged and
// skipped so one bad address cannot block the rest.
func (f *Fanout) Deliver(ctx context.Context, eventType string, p Payload) error {
	notifType, message, ok := Compose(eventType, p)
	if !ok {
		f.logger.Warn("unhandled event type", "event_type", eventType)
		return nil
	}

	recipients, err := f.repo.StaffRecipients(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	for _, rec := range recipients {
		if err := f.repo.Insert(ctx, storage.Notification{
			RecipientID:   rec.ID,
			AppointmentID: p.AppointmentID,
			Type:          notifType,
			Message:       message,
		}); err != nil {
			f.logger.Error("notification insert failed", "recipient_id", rec.ID, "appointment_id", p.AppointmentID, "err", err)
			continue
		}
		if err := f.sender.Send(rec.Email, "Clinic: "+notifType, message); err != nil {
			f.logger.Warn("notification email failed", "recipient", rec.Email, "err", err)
		}
	}

	f.logger.Info("fan-out delivered",
		"event_type", eventType,
		"appointment_id", p.AppointmentID,
		"type", notifType,
		"recipients", len(recipients),
	)
	return nil
}
