package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type LocationRepository struct {
	pool *db.Pool
}

func NewLocationRepository(pool *db.Pool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

func (r *LocationRepository) Create(ctx context.Context, l *model.ClinicLocation) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO clinic_locations (name, address, phone, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, l.Name, l.Address, l.Phone, l.Latitude, l.Longitude).Scan(&l.ID)
}

func (r *LocationRepository) Get(ctx context.Context, id string) (model.ClinicLocation, error) {
	var l model.ClinicLocation
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, latitude, longitude
		FROM clinic_locations
		WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Address, &l.Phone, &l.Latitude, &l.Longitude)
	return l, err
}

func (r *LocationRepository) List(ctx context.Context) ([]model.ClinicLocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, phone, latitude, longitude
		FROM clinic_locations
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []model.ClinicLocation
	for rows.Next() {
		var l model.ClinicLocation
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Phone, &l.Latitude, &l.Longitude); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *LocationRepository) Update(ctx context.Context, l *model.ClinicLocation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clinic_locations
		SET name = $2, address = $3, phone = $4, latitude = $5, longitude = $6
		WHERE id = $1
	`, l.ID, l.Name, l.Address, l.Phone, l.Latitude, l.Longitude)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clinic_locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}
