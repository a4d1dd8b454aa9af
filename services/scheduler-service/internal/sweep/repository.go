package sweep

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/caredent/clinic-backend/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// MarkOverdueMissed transitions up to limit overdue active appointments to
// missed. Overdue means the date is past, or today with the slot time
// already elapsed (slot times are minute-granular "HH24:MI" strings, so
// lexical comparison matches chronological order). SKIP LOCKED keeps
// concurrent sweepers and in-flight lifecycle transactions out of each
// other's way.
func (r *Repository) MarkOverdueMissed(ctx context.Context, tx pgx.Tx, now time.Time, limit int) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'missed', updated_at = now()
		WHERE id IN (
			SELECT id FROM appointments
			WHERE status IN ('confirmed', 'reschedule_requested', 'cancel_requested')
				AND (scheduled_date < $1::date
					OR (scheduled_date = $1::date AND scheduled_time < $2))
			ORDER BY scheduled_date, scheduled_time
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
	`, now, now.Format("15:04"), limit)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
