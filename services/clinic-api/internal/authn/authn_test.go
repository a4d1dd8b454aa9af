package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caredent/clinic-backend/libs/auth"
)

func TestRequireVerifiesBearerToken(t *testing.T) {
	secret := "test-secret"
	claims := auth.Claims{
		Sub:  "user-1",
		Role: "patient",
		Iat:  time.Now().Unix(),
		Exp:  time.Now().Add(1 * time.Hour).Unix(),
	}
	token, err := auth.SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	h := Require(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := ClaimsFrom(r.Context())
		if got == nil || got.Sub != claims.Sub {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}

	reqMissing := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rwMissing := httptest.NewRecorder()
	h.ServeHTTP(rwMissing, reqMissing)
	if rwMissing.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwMissing.Code)
	}
}

func TestRequireStaffRejectsPatients(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireStaff()(ok)

	for role, want := range map[string]int{
		"patient": http.StatusForbidden,
		"staff":   http.StatusOK,
		"owner":   http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
		req = req.WithContext(withClaims(req.Context(), &auth.Claims{Sub: "u", Role: role}))
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != want {
			t.Fatalf("role %s: expected %d, got %d", role, want, rw.Code)
		}
	}

	reqAnon := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	rwAnon := httptest.NewRecorder()
	h.ServeHTTP(rwAnon, reqAnon)
	if rwAnon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rwAnon.Code)
	}
}
