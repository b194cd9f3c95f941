package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-booking/internal/auth"
)

type stubParser struct {
	tokens map[string]uuid.UUID
}

func (s stubParser) ParseAccess(token string) (uuid.UUID, error) {
	if token == "expired" {
		return uuid.Nil, auth.ErrTokenExpired
	}
	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, auth.ErrTokenInvalid
	}
	return id, nil
}

func TestPatientAuth(t *testing.T) {
	patientID := uuid.New()
	parser := stubParser{tokens: map[string]uuid.UUID{"good": patientID}}

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer", "Bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized},
		{"expired cookie", "", "expired", http.StatusUnauthorized},
		{"bearer wins over cookie", "Bearer good", "bad", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/my/info", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			PatientAuth(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := auth.PatientIDFromContext(r.Context())
				if !ok || id != patientID {
					t.Fatalf("expected patient %s in context, got %s", patientID, id)
				}
			})).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Fatalf("expected JSON content type, got %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestOptionalPatientAuth(t *testing.T) {
	patientID := uuid.New()
	parser := stubParser{tokens: map[string]uuid.UUID{"good": patientID}}

	for token, wantOK := range map[string]bool{"good": true, "bad": false, "": false} {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		called := false

		OptionalPatientAuth(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if _, ok := auth.PatientIDFromContext(r.Context()); ok != wantOK {
				t.Fatalf("token %q: expected patient in context %v, got %v", token, wantOK, ok)
			}
		})).ServeHTTP(rec, req)

		if !called {
			t.Fatalf("token %q: expected handler to be called", token)
		}
	}
}
