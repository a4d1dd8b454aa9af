package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
)

type Notification struct {
	RecipientID   string
	AppointmentID string
	Type          string
	Message       string
}

// Recipient is a staff or owner user eligible for appointment notifications.
type Recipient struct {
	ID       string
	Email    string
	FullName string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (recipient_id, appointment_id, type, message)
		VALUES ($1, $2, $3, $4)
	`, n.RecipientID, n.AppointmentID, n.Type, n.Message)
	return err
}

func (r *Repository) StaffRecipients(ctx context.Context) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, full_name
		FROM users
		WHERE role IN ('staff', 'owner')
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.FullName); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
