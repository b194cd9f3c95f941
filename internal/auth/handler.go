package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// CookieName is the cookie carrying the patient access token.
const CookieName = "access_token"

// Handler serves the login endpoints.
type Handler struct {
	service      *Service
	secureCookie bool
	logger       *logging.Logger
}

func NewHandler(service *Service, secureCookie bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, secureCookie: secureCookie, logger: logger}
}

// LoginRequest starts a login.
type LoginRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest completes a login.
type VerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// TokenResponse is returned after a successful verification.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.Login(r.Context(), req.Phone); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_sent"})
}

// VerifyCode handles POST /auth/verify-code.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, expires, err := h.service.Verify(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires})
}

// Logout handles POST /auth/logout by expiring the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInvalidCode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrOTPNotFound), errors.Is(err, ErrOTPMismatch):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.logger.Error("auth request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
