package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	a.id, a.patient_id, a.dentist_id, a.service_id,
	a.scheduled_date, a.scheduled_time, a.status, COALESCE(a.notes, ''),
	a.proposed_date, a.proposed_time, a.proposed_service_id, a.proposed_dentist_id, a.proposed_notes,
	a.cancel_reason, a.cancel_requested_at,
	a.created_at, a.updated_at,
	COALESCE(p.full_name, ''), COALESCE(s.name, '')`

const appointmentFrom = `
	FROM appointments a
	LEFT JOIN users p ON p.id = a.patient_id
	LEFT JOIN services s ON s.id = a.service_id`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DentistID, &a.ServiceID,
		&a.Date, &a.TimeSlot, &a.Status, &a.Notes,
		&a.ProposedDate, &a.ProposedTime, &a.ProposedServiceID, &a.ProposedDentistID, &a.ProposedNotes,
		&a.CancelReason, &a.CancelRequestedAt,
		&a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.ServiceName,
	)
	return a, err
}

// HasSlotConflict reports whether another active appointment already occupies
// date+slot for the same dentist. Unassigned dentists collide with each other
// (IS NOT DISTINCT FROM), not with assigned ones. excludeID skips the row
// being moved; pass "" on create.
//
// Callers run this inside the same transaction that writes the row; the
// partial unique index on appointments backstops the race between two
// concurrent transactions.
func (r *AppointmentRepository) HasSlotConflict(ctx context.Context, tx pgx.Tx, date time.Time, slot string, dentistID *string, excludeID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE scheduled_date = $1
				AND scheduled_time = $2
				AND dentist_id IS NOT DISTINCT FROM $3
				AND status IN ('pending', 'confirmed')
				AND ($4 = '' OR id <> $4::uuid)
		)
	`, date, slot, dentistID, excludeID).Scan(&exists)
	return exists, err
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_id, dentist_id, service_id, scheduled_date, scheduled_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, a.PatientID, a.DentistID, a.ServiceID, a.Date, a.TimeSlot, a.Status, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+` WHERE a.id = $1`, id))
}

// GetForUpdate locks the appointment row for the duration of the transaction.
// Every lifecycle transition goes through this lock so that concurrent
// actions on the same appointment serialize.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx,
		`SELECT`+appointmentColumns+appointmentFrom+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

// Update persists every mutable column. Lifecycle transitions mutate the
// in-memory row and call this inside the locking transaction.
func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET dentist_id = $2,
			service_id = $3,
			scheduled_date = $4,
			scheduled_time = $5,
			status = $6,
			notes = $7,
			proposed_date = $8,
			proposed_time = $9,
			proposed_service_id = $10,
			proposed_dentist_id = $11,
			proposed_notes = $12,
			cancel_reason = $13,
			cancel_requested_at = $14,
			updated_at = now()
		WHERE id = $1
	`, a.ID, a.DentistID, a.ServiceID, a.Date, a.TimeSlot, a.Status, a.Notes,
		a.ProposedDate, a.ProposedTime, a.ProposedServiceID, a.ProposedDentistID, a.ProposedNotes,
		a.CancelReason, a.CancelRequestedAt)
	return err
}

func (r *AppointmentRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	PatientID string
	Status    model.Status
	Date      *time.Time
}

func (r *AppointmentRepository) List(ctx context.Context, f ListFilter) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+appointmentFrom+`
		WHERE ($1 = '' OR a.patient_id = $1::uuid)
			AND ($2 = '' OR a.status = $2)
			AND ($3::date IS NULL OR a.scheduled_date = $3)
		ORDER BY a.scheduled_date DESC, a.scheduled_time DESC
	`, f.PatientID, string(f.Status), f.Date)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// ListToday returns today's active schedule in slot order.
func (r *AppointmentRepository) ListToday(ctx context.Context, today time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.scheduled_date = $1
			AND a.status NOT IN ('completed', 'missed')
		ORDER BY a.scheduled_time ASC
	`, today)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// ListUpcoming returns a patient's future pending/confirmed appointments.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, patientID string, from time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+appointmentFrom+`
		WHERE a.patient_id = $1
			AND a.scheduled_date >= $2
			AND a.status IN ('pending', 'confirmed')
		ORDER BY a.scheduled_date ASC, a.scheduled_time ASC
	`, patientID, from)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// BookedSlot is one occupied slot on a date, as served to booking UIs.
type BookedSlot struct {
	TimeSlot  string
	DentistID *string
}

func (r *AppointmentRepository) BookedSlots(ctx context.Context, date time.Time) ([]BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_time, dentist_id
		FROM appointments
		WHERE scheduled_date = $1
			AND status IN ('pending', 'confirmed')
		ORDER BY scheduled_time ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []BookedSlot
	for rows.Next() {
		var s BookedSlot
		if err := rows.Scan(&s.TimeSlot, &s.DentistID); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
