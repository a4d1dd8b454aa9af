package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func appt(status model.Status) *model.Appointment {
	return &model.Appointment{
		ID:        "appt-1",
		PatientID: "patient-1",
		Date:      time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		TimeSlot:  "09:00",
		Status:    status,
	}
}

func TestNextRejectsUndefinedEdges(t *testing.T) {
	cases := []struct {
		from model.Status
		ev   Event
	}{
		{model.StatusCompleted, EventRequestReschedule},
		{model.StatusCancelled, EventRequestReschedule},
		{model.StatusCancelRequested, EventRequestReschedule},
		{model.StatusCompleted, EventRequestCancel},
		{model.StatusCancelled, EventRequestCancel},
		{model.StatusPending, EventApproveReschedule},
		{model.StatusConfirmed, EventApproveCancel},
		{model.StatusPending, EventRejectCancel},
		{model.StatusCompleted, EventComplete},
		{model.StatusMissed, EventMarkMissed},
		{model.StatusPending, EventAutoMiss},
		{model.StatusMissed, EventAutoMiss},
	}
	for _, tc := range cases {
		if _, err := Next(tc.from, tc.ev); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Next(%s, %s): want ErrInvalidTransition, got %v", tc.from, tc.ev, err)
		}
	}
}

func TestNextAllowsTableEdges(t *testing.T) {
	cases := []struct {
		from model.Status
		ev   Event
		to   model.Status
	}{
		{model.StatusPending, EventRequestReschedule, model.StatusRescheduleRequested},
		{model.StatusMissed, EventRequestReschedule, model.StatusRescheduleRequested},
		{model.StatusRescheduleRequested, EventApproveReschedule, model.StatusConfirmed},
		{model.StatusRescheduleRequested, EventRejectReschedule, model.StatusConfirmed},
		{model.StatusCancelRequested, EventRequestCancel, model.StatusCancelRequested},
		{model.StatusCancelRequested, EventRejectCancel, model.StatusConfirmed},
		{model.StatusCancelRequested, EventComplete, model.StatusCompleted},
		{model.StatusConfirmed, EventAutoMiss, model.StatusMissed},
		{model.StatusCancelRequested, EventAutoMiss, model.StatusMissed},
	}
	for _, tc := range cases {
		got, err := Next(tc.from, tc.ev)
		if err != nil {
			t.Errorf("Next(%s, %s): unexpected error %v", tc.from, tc.ev, err)
			continue
		}
		if got != tc.to {
			t.Errorf("Next(%s, %s) = %s, want %s", tc.from, tc.ev, got, tc.to)
		}
	}
}

func TestRequestRescheduleSetsProposal(t *testing.T) {
	a := appt(model.StatusConfirmed)
	p := Proposal{
		Date:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		TimeSlot: "10:30",
		Notes:    "prefer afternoon next time",
	}
	if err := RequestReschedule(a, "patient-1", p, now); err != nil {
		t.Fatalf("RequestReschedule failed: %v", err)
	}
	if a.Status != model.StatusRescheduleRequested {
		t.Fatalf("status = %s, want reschedule_requested", a.Status)
	}
	if a.ProposedDate == nil || !a.ProposedDate.Equal(p.Date) {
		t.Fatal("proposed date not recorded")
	}
	if a.ProposedTime == nil || *a.ProposedTime != "10:30" {
		t.Fatal("proposed time not recorded")
	}
	// The primary slot is untouched until approval.
	if a.TimeSlot != "09:00" {
		t.Fatalf("primary slot changed to %s before approval", a.TimeSlot)
	}
}

func TestRequestRescheduleRejectsNonOwner(t *testing.T) {
	a := appt(model.StatusConfirmed)
	err := RequestReschedule(a, "someone-else", Proposal{Date: a.Date, TimeSlot: "10:00"}, now)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
	if a.Status != model.StatusConfirmed {
		t.Fatal("appointment mutated on rejected request")
	}
}

func TestApproveRescheduleAppliesAndClearsProposal(t *testing.T) {
	a := appt(model.StatusConfirmed)
	dentist := "dentist-2"
	p := Proposal{
		Date:      time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		TimeSlot:  "10:30",
		DentistID: &dentist,
	}
	if err := RequestReschedule(a, "patient-1", p, now); err != nil {
		t.Fatalf("RequestReschedule failed: %v", err)
	}
	if err := ApproveReschedule(a, now); err != nil {
		t.Fatalf("ApproveReschedule failed: %v", err)
	}
	if a.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", a.Status)
	}
	if !a.Date.Equal(p.Date) || a.TimeSlot != "10:30" {
		t.Fatalf("slot not updated: %s %s", a.Date, a.TimeSlot)
	}
	if a.DentistID == nil || *a.DentistID != "dentist-2" {
		t.Fatal("dentist not updated from proposal")
	}
	if a.ProposedDate != nil || a.ProposedTime != nil || a.ProposedDentistID != nil {
		t.Fatal("proposal fields not cleared after approval")
	}
}

func TestApproveRescheduleWrongStateLeavesRecordUnchanged(t *testing.T) {
	a := appt(model.StatusPending)
	before := *a
	if err := ApproveReschedule(a, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if *a != before {
		t.Fatal("appointment mutated by rejected transition")
	}
}

func TestRejectRescheduleClearsProposalKeepsSlot(t *testing.T) {
	a := appt(model.StatusPending)
	if err := RequestReschedule(a, "patient-1", Proposal{Date: a.Date, TimeSlot: "14:00"}, now); err != nil {
		t.Fatalf("RequestReschedule failed: %v", err)
	}
	if err := RejectReschedule(a, now); err != nil {
		t.Fatalf("RejectReschedule failed: %v", err)
	}
	if a.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", a.Status)
	}
	if a.TimeSlot != "09:00" {
		t.Fatal("primary slot changed by rejection")
	}
	if a.ProposedTime != nil {
		t.Fatal("proposal not cleared")
	}
}

func TestRequestCancelSetsReasonAndTimestamp(t *testing.T) {
	a := appt(model.StatusConfirmed)
	if err := RequestCancel(a, "patient-1", "travelling that week", now); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if a.Status != model.StatusCancelRequested {
		t.Fatalf("status = %s, want cancel_requested", a.Status)
	}
	if a.CancelReason == nil || *a.CancelReason != "travelling that week" {
		t.Fatal("cancel reason not recorded")
	}
	if a.CancelRequestedAt == nil || !a.CancelRequestedAt.Equal(now) {
		t.Fatal("cancel timestamp not recorded")
	}
}

func TestRequestCancelByOtherPatientForbiddenRegardlessOfState(t *testing.T) {
	for _, status := range []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusMissed} {
		a := appt(status)
		if err := RequestCancel(a, "intruder", "x", now); !errors.Is(err, ErrNotOwner) {
			t.Errorf("status %s: want ErrNotOwner, got %v", status, err)
		}
	}
}

func TestRejectCancelClearsRequestFields(t *testing.T) {
	a := appt(model.StatusConfirmed)
	if err := RequestCancel(a, "patient-1", "reason", now); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if err := RejectCancel(a, now); err != nil {
		t.Fatalf("RejectCancel failed: %v", err)
	}
	if a.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", a.Status)
	}
	if a.CancelReason != nil || a.CancelRequestedAt != nil {
		t.Fatal("cancel request fields not cleared")
	}
}

func TestApproveCancelOnlyFromCancelRequested(t *testing.T) {
	if err := ApproveCancel(appt(model.StatusCancelRequested)); err != nil {
		t.Fatalf("ApproveCancel failed: %v", err)
	}
	for _, status := range []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusCompleted} {
		if err := ApproveCancel(appt(status)); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("status %s: want ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestCompletionRecordDefaultTreatment(t *testing.T) {
	a := appt(model.StatusConfirmed)
	a.ServiceName = "Tooth Extraction"
	rec := CompletionRecord(a, "", "staff-1", now)
	if rec.Treatment != "Completed: Tooth Extraction" {
		t.Fatalf("treatment = %q", rec.Treatment)
	}

	a.ServiceName = ""
	rec = CompletionRecord(a, "", "staff-1", now)
	if rec.Treatment != "Completed: General Consultation" {
		t.Fatalf("treatment = %q", rec.Treatment)
	}

	rec = CompletionRecord(a, "Root canal, first session", "staff-1", now)
	if rec.Treatment != "Root canal, first session" {
		t.Fatalf("supplied treatment overridden: %q", rec.Treatment)
	}
	if rec.AppointmentID == nil || *rec.AppointmentID != "appt-1" {
		t.Fatal("record not linked to appointment")
	}
	if rec.PatientID != "patient-1" {
		t.Fatal("record not linked to patient")
	}
}

func TestAutoMissIdempotent(t *testing.T) {
	// Once missed, a second sweep pass finds no legal auto_miss edge.
	a := appt(model.StatusConfirmed)
	next, err := Next(a.Status, EventAutoMiss)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	a.Status = next
	if _, err := Next(a.Status, EventAutoMiss); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second sweep should be a no-op, got %v", err)
	}
}
