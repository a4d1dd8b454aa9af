package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO services (name, category, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, s.Name, s.Category, s.Description).Scan(&s.ID, &s.CreatedAt)
}

func (r *ServiceRepository) Get(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(category, ''), COALESCE(description, ''), created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.CreatedAt)
	return s, err
}

func (r *ServiceRepository) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(category, ''), COALESCE(description, ''), created_at
		FROM services
		ORDER BY category ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *ServiceRepository) Update(ctx context.Context, s *model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2, category = $3, description = $4
		WHERE id = $1
	`, s.ID, s.Name, s.Category, s.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}
