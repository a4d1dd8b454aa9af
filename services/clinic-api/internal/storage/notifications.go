package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

// NotificationRepository is the read side of the notifications table; rows
// are written by the notification consumer service.
type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_id, appointment_id, type, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1
			AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
		LIMIT 100
	`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.AppointmentID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// MarkRead flips one notification, scoped to its recipient so users cannot
// touch each other's rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true WHERE recipient_id = $1 AND NOT read
	`, recipientID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
