// Package authn attaches verified token claims to the request context and
// gates staff-only routes.
package authn

import (
	"context"
	"net/http"

	"github.com/caredent/clinic-backend/libs/auth"
	"github.com/caredent/clinic-backend/libs/httpx"
)

type ctxKey struct{}

// ClaimsFrom returns the claims set by Require, or nil for unauthenticated
// requests (routes not behind the middleware).
func ClaimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ctxKey{}).(*auth.Claims)
	return c
}

func withClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Require verifies the bearer token and stores the claims on the context.
// Requests without a valid token get 401.
func Require(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := auth.ParseAndVerifyHS256(token, secret)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireStaff layers a staff/owner role check on top of Require's claims.
func RequireStaff() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				unauthorized(w)
				return
			}
			if !claims.IsStaff() {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"missing or invalid credentials"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"authorization","message":"staff role required"}`))
}
