package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type PlanRepository struct {
	pool *db.Pool
}

func NewPlanRepository(pool *db.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

func (r *PlanRepository) Create(ctx context.Context, p *model.TreatmentPlan) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO treatment_plans (patient_id, title, description, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, p.PatientID, p.Title, p.Description, p.StartDate, p.EndDate, p.Status, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *PlanRepository) Get(ctx context.Context, id string) (model.TreatmentPlan, error) {
	var p model.TreatmentPlan
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, title, COALESCE(description, ''), start_date, end_date, status, created_by, created_at
		FROM treatment_plans
		WHERE id = $1
	`, id).Scan(&p.ID, &p.PatientID, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

// ListByPatient returns plans newest first. Empty patientID lists all plans
// (staff overview).
func (r *PlanRepository) ListByPatient(ctx context.Context, patientID string) ([]model.TreatmentPlan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, title, COALESCE(description, ''), start_date, end_date, status, created_by, created_at
		FROM treatment_plans
		WHERE ($1 = '' OR patient_id = $1::uuid)
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []model.TreatmentPlan
	for rows.Next() {
		var p model.TreatmentPlan
		if err := rows.Scan(&p.ID, &p.PatientID, &p.Title, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) Update(ctx context.Context, p *model.TreatmentPlan) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE treatment_plans
		SET title = $2, description = $3, start_date = $4, end_date = $5, status = $6
		WHERE id = $1
	`, p.ID, p.Title, p.Description, p.StartDate, p.EndDate, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM treatment_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}
