package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

type BillingConfig struct {
	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	CheckoutSuccessURL     string
	CheckoutCancelURL      string
}

// BillingHandler manages invoices and the Stripe checkout flow for paying
// them online.
type BillingHandler struct {
	repo   *storage.BillingRepository
	cfg    BillingConfig
	logger *slog.Logger
}

func NewBillingHandler(repo *storage.BillingRepository, cfg BillingConfig, logger *slog.Logger) *BillingHandler {
	if cfg.StripeWebhookTolerance <= 0 {
		cfg.StripeWebhookTolerance = 5 * time.Minute
	}
	return &BillingHandler{repo: repo, cfg: cfg, logger: logger}
}

type invoiceResponse struct {
	ID            string  `json:"id"`
	PatientID     string  `json:"patient_id"`
	AppointmentID *string `json:"appointment_id,omitempty"`
	AmountCents   int64   `json:"amount_cents"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
}

func toInvoiceResponse(inv model.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		PatientID:     inv.PatientID,
		AppointmentID: inv.AppointmentID,
		AmountCents:   inv.AmountCents,
		Description:   inv.Description,
		Status:        inv.Status,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type createInvoiceRequest struct {
	PatientID     string  `json:"patient_id"`
	AppointmentID *string `json:"appointment_id"`
	AmountCents   int64   `json:"amount_cents"`
	Description   string  `json:"description"`
}

func (h *BillingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	if req.PatientID == "" {
		validationError(w, "patient_id required")
		return
	}
	if req.AmountCents <= 0 {
		validationError(w, "amount_cents must be positive")
		return
	}

	inv := &model.Invoice{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		AmountCents:   req.AmountCents,
		Description:   strings.TrimSpace(req.Description),
		Status:        model.InvoiceStatusPending,
		CreatedBy:     claims.Sub,
	}
	if err := h.repo.Create(r.Context(), inv); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(*inv))
}

func (h *BillingHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())

	patientID := r.URL.Query().Get("patient_id")
	if !claims.IsStaff() {
		patientID = claims.Sub
	}
	invoices, err := h.repo.ListByPatient(r.Context(), patientID)
	if err != nil {
		internalError(w)
		return
	}
	items := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BillingHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	inv, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "invoice not found")
			return
		}
		internalError(w)
		return
	}
	if !claims.IsStaff() && inv.PatientID != claims.Sub {
		authorizationError(w, "not your invoice")
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

type invoiceStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus lets staff settle or void an invoice manually (cash payments,
// write-offs).
func (h *BillingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req invoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	switch req.Status {
	case model.InvoiceStatusPending, model.InvoiceStatusPaid, model.InvoiceStatusCancelled:
	default:
		validationError(w, "status must be pending, paid or cancelled")
		return
	}
	if err := h.repo.SetStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "invoice not found")
			return
		}
		internalError(w)
		return
	}
	inv, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

type checkoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Checkout opens a Stripe Checkout session for a pending invoice. The
// session id is stored on the invoice so the webhook can settle it.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StripeSecretKey == "" {
		writeError(w, http.StatusNotImplemented, "not_configured", "online payment is not configured")
		return
	}

	claims := authn.ClaimsFrom(r.Context())
	inv, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "invoice not found")
			return
		}
		internalError(w)
		return
	}
	if !claims.IsStaff() && inv.PatientID != claims.Sub {
		authorizationError(w, "not your invoice")
		return
	}
	if inv.Status != model.InvoiceStatusPending {
		conflictError(w, "invoice is not payable")
		return
	}

	description := inv.Description
	if description == "" {
		description = "Dental clinic invoice"
	}

	// Stripe uses a global API key. Keep usage limited to this handler call.
	stripe.Key = h.cfg.StripeSecretKey

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(h.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(h.cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(inv.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(inv.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{"invoice_id": inv.ID},
	}
	if idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key")); idemKey != "" {
		params.IdempotencyKey = stripe.String(idemKey)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session create failed", "invoice_id", inv.ID, "err", err)
		writeError(w, http.StatusBadGateway, "payment_provider", "failed to create checkout session")
		return
	}

	if err := h.repo.AttachCheckoutSession(r.Context(), inv.ID, sess.ID); err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{SessionID: sess.ID, URL: sess.URL})
}

// StripeWebhook settles invoices on checkout.session.completed. No JWT auth;
// the signature check is the auth. Replayed deliveries match zero rows and
// return 200.
func (h *BillingHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.cfg.StripeWebhookSecret, h.cfg.StripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if evt.Type != "checkout.session.completed" {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	settled, err := h.repo.MarkPaidBySession(r.Context(), sess.ID)
	if err != nil {
		internalError(w)
		return
	}
	h.logger.Info("stripe checkout completed",
		"stripe_session_id", sess.ID,
		"invoice_settled", settled,
	)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
