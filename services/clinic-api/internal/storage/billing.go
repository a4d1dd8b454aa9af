package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type BillingRepository struct {
	pool *db.Pool
}

func NewBillingRepository(pool *db.Pool) *BillingRepository {
	return &BillingRepository{pool: pool}
}

func (r *BillingRepository) Create(ctx context.Context, inv *model.Invoice) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO billing_invoices (patient_id, appointment_id, amount_cents, description, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, inv.PatientID, inv.AppointmentID, inv.AmountCents, inv.Description, inv.Status, inv.CreatedBy).
		Scan(&inv.ID, &inv.CreatedAt)
}

func (r *BillingRepository) Get(ctx context.Context, id string) (model.Invoice, error) {
	var inv model.Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, appointment_id, amount_cents, COALESCE(description, ''), status, stripe_session_id, created_by, created_at
		FROM billing_invoices
		WHERE id = $1
	`, id).Scan(&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Description, &inv.Status, &inv.StripeSessionID, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

func (r *BillingRepository) ListByPatient(ctx context.Context, patientID string) ([]model.Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, appointment_id, amount_cents, COALESCE(description, ''), status, stripe_session_id, created_by, created_at
		FROM billing_invoices
		WHERE ($1 = '' OR patient_id = $1::uuid)
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Description, &inv.Status, &inv.StripeSessionID, &inv.CreatedBy, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *BillingRepository) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE billing_invoices SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

// AttachCheckoutSession links a Stripe Checkout session to the invoice so the
// webhook can resolve it back.
func (r *BillingRepository) AttachCheckoutSession(ctx context.Context, id, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE billing_invoices SET stripe_session_id = $2 WHERE id = $1
	`, id, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

// MarkPaidBySession flips the invoice for a completed Checkout session to
// paid. Re-delivered webhooks match zero rows and are harmless.
func (r *BillingRepository) MarkPaidBySession(ctx context.Context, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE billing_invoices
		SET status = 'paid'
		WHERE stripe_session_id = $1 AND status <> 'paid'
	`, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
