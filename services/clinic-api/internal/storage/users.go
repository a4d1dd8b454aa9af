package storage

import (
	"context"
	"time"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, COALESCE(phone, ''), role, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

func (r *UserRepository) Get(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, COALESCE(phone, ''), role, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// PatientSummary is a patient plus their most recent appointment date,
// which drives the active/inactive classification.
type PatientSummary struct {
	model.User
	LastAppointment *time.Time
}

// ListPatients returns every patient with their latest appointment date in
// one set-based query rather than refreshing a stored flag per row.
func (r *UserRepository) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.password_hash, u.full_name, COALESCE(u.phone, ''), u.role, u.created_at,
			max(a.scheduled_date)
		FROM users u
		LEFT JOIN appointments a ON a.patient_id = u.id
		WHERE u.role = 'patient'
		GROUP BY u.id, u.email, u.password_hash, u.full_name, u.phone, u.role, u.created_at
		ORDER BY u.full_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []PatientSummary
	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Phone, &p.Role, &p.CreatedAt, &p.LastAppointment); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// ListByRoles returns users holding any of the given roles, name order.
func (r *UserRepository) ListByRoles(ctx context.Context, roles ...string) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, password_hash, full_name, COALESCE(phone, ''), role, created_at
		FROM users
		WHERE role = ANY($1)
		ORDER BY full_name ASC
	`, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
