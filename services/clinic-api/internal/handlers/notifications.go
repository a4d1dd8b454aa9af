package handlers

import (
	"net/http"
	"time"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

// NotificationHandler serves each user their own notification feed.
type NotificationHandler struct {
	repo *storage.NotificationRepository
}

func NewNotificationHandler(repo *storage.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

type notificationResponse struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	Type          string `json:"type"`
	Message       string `json:"message"`
	Read          bool   `json:"read"`
	CreatedAt     string `json:"created_at"`
}

func toNotificationResponse(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:            n.ID,
		AppointmentID: n.AppointmentID,
		Type:          n.Type,
		Message:       n.Message,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notes, err := h.repo.ListByRecipient(r.Context(), claims.Sub, unreadOnly)
	if err != nil {
		internalError(w)
		return
	}
	items := make([]notificationResponse, 0, len(notes))
	for _, n := range notes {
		items = append(items, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	if err := h.repo.MarkRead(r.Context(), r.PathValue("id"), claims.Sub); err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "notification not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "read": true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	updated, err := h.repo.MarkAllRead(r.Context(), claims.Sub)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
