package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

// ToothChartRepository holds one chart per patient, keyed by patient id.
type ToothChartRepository struct {
	pool *db.Pool
}

func NewToothChartRepository(pool *db.Pool) *ToothChartRepository {
	return &ToothChartRepository{pool: pool}
}

func (r *ToothChartRepository) Get(ctx context.Context, patientID string) (model.ToothChart, error) {
	var c model.ToothChart
	err := r.pool.QueryRow(ctx, `
		SELECT patient_id, chart_data, COALESCE(notes, ''), updated_at
		FROM tooth_charts
		WHERE patient_id = $1
	`, patientID).Scan(&c.PatientID, &c.ChartData, &c.Notes, &c.UpdatedAt)
	return c, err
}

// Upsert creates the patient's chart on first write and replaces it after.
func (r *ToothChartRepository) Upsert(ctx context.Context, c *model.ToothChart) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tooth_charts (patient_id, chart_data, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id)
		DO UPDATE SET chart_data = EXCLUDED.chart_data, notes = EXCLUDED.notes, updated_at = now()
		RETURNING updated_at
	`, c.PatientID, c.ChartData, c.Notes).Scan(&c.UpdatedAt)
}
