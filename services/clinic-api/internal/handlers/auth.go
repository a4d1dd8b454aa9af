package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/caredent/clinic-backend/libs/auth"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/authn"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/storage"
)

type AuthHandler struct {
	users    *storage.UserRepository
	secret   string
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(users *storage.UserRepository, secret string, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{users: users, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register creates a patient account. Staff and owner accounts are
// provisioned out of band.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		validationError(w, "valid email required")
		return
	}
	if req.FullName == "" {
		validationError(w, "full_name required")
		return
	}
	if len(req.Password) < 8 {
		validationError(w, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(w)
		return
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         "patient",
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if storage.IsConflict(err) {
			validationError(w, "email already registered")
			return
		}
		h.logger.Error("user create failed", "err", err)
		internalError(w)
		return
	}

	token, err := h.issueToken(*user)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(*user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "invalid json body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if storage.IsNotFound(err) {
			// Same response as a bad password; do not leak which emails exist.
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		internalError(w)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := authn.ClaimsFrom(r.Context())
	user, err := h.users.Get(r.Context(), claims.Sub)
	if err != nil {
		if storage.IsNotFound(err) {
			notFoundError(w, "user not found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) issueToken(u model.User) (string, error) {
	now := time.Now().UTC()
	return auth.SignHS256(auth.Claims{
		Sub:  u.ID,
		Role: u.Role,
		Name: u.FullName,
		Iat:  now.Unix(),
		Exp:  now.Add(h.tokenTTL).Unix(),
	}, h.secret)
}
