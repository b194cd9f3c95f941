package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-booking/internal/auth"
)

// AccessParser validates patient access tokens.
type AccessParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// PatientAuth requires a valid access token, taken from the bearer header or
// the access token cookie, and stores the patient id in the request context.
func PatientAuth(parser AccessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := accessToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			patientID, err := parser.ParseAccess(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPatientID(r.Context(), patientID)))
		})
	}
}

// OptionalPatientAuth attaches the patient id when a valid token is present
// and otherwise lets the request through anonymously.
func OptionalPatientAuth(parser AccessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := accessToken(r); ok {
				if patientID, err := parser.ParseAccess(token); err == nil {
					r = r.WithContext(auth.WithPatientID(r.Context(), patientID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r); ok {
		return token, true
	}
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
