package model

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         string
	CreatedAt    time.Time
}

type Service struct {
	ID          string
	Name        string
	Category    string
	Description string
	CreatedAt   time.Time
}

type DentalRecord struct {
	ID            string
	PatientID     string
	AppointmentID *string
	Treatment     string
	Diagnosis     string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

// Invoice replaces the legacy paid/unpaid boolean with a single status enum
// (pending, paid, cancelled). Amounts are in centavos.
type Invoice struct {
	ID              string
	PatientID       string
	AppointmentID   *string
	AmountCents     int64
	Description     string
	Status          string
	StripeSessionID *string
	CreatedBy       string
	CreatedAt       time.Time
}

const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

type InventoryItem struct {
	ID        string
	Name      string
	Category  string
	Quantity  int
	MinStock  int
	Supplier  string
	CostCents int64
	UpdatedAt time.Time
}

func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinStock
}

type Notification struct {
	ID            string
	RecipientID   string
	AppointmentID string
	Type          string
	Message       string
	Read          bool
	CreatedAt     time.Time
}

// ToothChart is the per-patient dental chart. ChartData is an opaque JSON
// document owned by the charting UI; the backend only validates that it is
// well-formed JSON.
type ToothChart struct {
	PatientID string
	ChartData json.RawMessage
	Notes     string
	UpdatedAt time.Time
}

type ClinicLocation struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Latitude  *float64
	Longitude *float64
}

const (
	PlanStatusPlanned   = "planned"
	PlanStatusOngoing   = "ongoing"
	PlanStatusCompleted = "completed"
)

func ParsePlanStatus(raw string) (string, bool) {
	switch raw {
	case PlanStatusPlanned, PlanStatusOngoing, PlanStatusCompleted:
		return raw, true
	default:
		return "", false
	}
}

type TreatmentPlan struct {
	ID          string
	PatientID   string
	Title       string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Status      string
	CreatedBy   string
	CreatedAt   time.Time
}

// ActivePatient reports whether a patient counts as active: at least one
// appointment within the last two years. Computed from the appointment
// history on read rather than stored and refreshed. Appointment dates carry
// no clock time, so the cutoff compares whole days.
func ActivePatient(lastAppointment *time.Time, now time.Time) bool {
	if lastAppointment == nil {
		return false
	}
	cutoff := now.AddDate(-2, 0, 0)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	return !lastAppointment.Before(cutoff)
}
