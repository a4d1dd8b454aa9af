package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestWithRequestIDGeneratesUUID(t *testing.T) {
	var got string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Fatal("no request id in context")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", got, err)
	}
	if header := rec.Header().Get(RequestIDHeader); header != got {
		t.Fatalf("response header %q, context id %q", header, got)
	}
}

func TestWithRequestIDEchoesCallerID(t *testing.T) {
	var got string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "caller-supplied-id" {
		t.Fatalf("context id = %q, want caller-supplied-id", got)
	}
	if header := rec.Header().Get(RequestIDHeader); header != "caller-supplied-id" {
		t.Fatalf("response header = %q, want caller-supplied-id", header)
	}
}
