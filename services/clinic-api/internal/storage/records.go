package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type RecordRepository struct {
	pool *db.Pool
}

func NewRecordRepository(pool *db.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) Create(ctx context.Context, rec *model.DentalRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO dental_records (patient_id, appointment_id, treatment, diagnosis, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rec.PatientID, rec.AppointmentID, rec.Treatment, rec.Diagnosis, rec.Notes, rec.CreatedBy).
		Scan(&rec.ID, &rec.CreatedAt)
}

// CreateTx writes the record inside an open transaction; the completion
// handler uses it so the status change and record commit together.
func (r *RecordRepository) CreateTx(ctx context.Context, tx pgx.Tx, rec *model.DentalRecord) error {
	return tx.QueryRow(ctx, `
		INSERT INTO dental_records (patient_id, appointment_id, treatment, diagnosis, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rec.PatientID, rec.AppointmentID, rec.Treatment, rec.Diagnosis, rec.Notes, rec.CreatedBy).
		Scan(&rec.ID, &rec.CreatedAt)
}

func (r *RecordRepository) Get(ctx context.Context, id string) (model.DentalRecord, error) {
	var rec model.DentalRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, appointment_id, treatment, COALESCE(diagnosis, ''), COALESCE(notes, ''), created_by, created_at
		FROM dental_records
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.PatientID, &rec.AppointmentID, &rec.Treatment, &rec.Diagnosis, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt)
	return rec, err
}

// ListByPatient returns a patient's history, newest first. Empty patientID
// lists all records (staff overview).
func (r *RecordRepository) ListByPatient(ctx context.Context, patientID string) ([]model.DentalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, appointment_id, treatment, COALESCE(diagnosis, ''), COALESCE(notes, ''), created_by, created_at
		FROM dental_records
		WHERE ($1 = '' OR patient_id = $1::uuid)
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.DentalRecord
	for rows.Next() {
		var rec model.DentalRecord
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.AppointmentID, &rec.Treatment, &rec.Diagnosis, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *RecordRepository) Update(ctx context.Context, rec *model.DentalRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE dental_records
		SET treatment = $2, diagnosis = $3, notes = $4
		WHERE id = $1
	`, rec.ID, rec.Treatment, rec.Diagnosis, rec.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dental_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}
