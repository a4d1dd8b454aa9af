package fanout

import (
	"strings"
	"testing"
)

func TestComposeBooked(t *testing.T) {
	notifType, msg, ok := Compose("clinic.appointment.booked.v1", Payload{
		PatientName: "Maria Santos",
		ServiceName: "Tooth Extraction",
		Date:        "2024-06-10",
		TimeSlot:    "09:00",
	})
	if !ok {
		t.Fatal("booked event not handled")
	}
	if notifType != TypeNewAppointment {
		t.Fatalf("type = %q", notifType)
	}
	want := "New appointment: Maria Santos on 2024-06-10 at 09:00 (Tooth Extraction)"
	if msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestComposeRescheduleIncludesProposedSlot(t *testing.T) {
	_, msg, ok := Compose("clinic.appointment.reschedule_requested.v1", Payload{
		PatientName:  "Jon Reyes",
		Date:         "2024-06-10",
		TimeSlot:     "09:00",
		ProposedDate: "2024-06-15",
		ProposedTime: "10:30",
	})
	if !ok {
		t.Fatal("reschedule event not handled")
	}
	if !strings.Contains(msg, "2024-06-15 at 10:30") {
		t.Fatalf("proposed slot missing from %q", msg)
	}
}

func TestComposeCancelRequestAppendsReason(t *testing.T) {
	reason := "travelling that week"
	_, msg, ok := Compose("clinic.appointment.cancel_requested.v1", Payload{
		PatientName:  "Jon Reyes",
		Date:         "2024-06-10",
		TimeSlot:     "09:00",
		CancelReason: &reason,
	})
	if !ok {
		t.Fatal("cancel request event not handled")
	}
	if !strings.HasSuffix(msg, ": travelling that week") {
		t.Fatalf("reason missing from %q", msg)
	}
}

func TestComposeSuppliedMessageWins(t *testing.T) {
	_, msg, ok := Compose("clinic.appointment.cancelled.v1", Payload{
		PatientName: "Jon Reyes",
		Date:        "2024-06-10",
		TimeSlot:    "09:00",
		Message:     "Front desk: slot freed for walk-ins",
	})
	if !ok {
		t.Fatal("cancelled event not handled")
	}
	if msg != "Front desk: slot freed for walk-ins" {
		t.Fatalf("supplied message overridden: %q", msg)
	}
}

func TestComposeUnknownPatientFallback(t *testing.T) {
	_, msg, _ := Compose("clinic.appointment.booked.v1", Payload{
		Date:     "2024-06-10",
		TimeSlot: "09:00",
	})
	if !strings.HasPrefix(msg, "A patient ") && !strings.HasPrefix(msg, "New appointment: A patient") {
		t.Fatalf("fallback name missing from %q", msg)
	}
}

func TestComposeRejectsUnknownTopic(t *testing.T) {
	if _, _, ok := Compose("clinic.appointment.completed.v1", Payload{}); ok {
		t.Fatal("unknown topic should not be handled")
	}
}
