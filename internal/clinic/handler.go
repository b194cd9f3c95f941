package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// SettingsStore reads and writes clinic settings.
type SettingsStore interface {
	Get(ctx context.Context) (*Settings, error)
	Set(ctx context.Context, cfg *Settings) error
}

// Handler provides HTTP endpoints for clinic settings management.
type Handler struct {
	store  SettingsStore
	logger *logging.Logger
}

// NewHandler creates a new clinic settings HTTP handler.
func NewHandler(store SettingsStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with clinic admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
	return r
}

// GetSettings returns the clinic settings.
// GET /admin/clinic/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get clinic settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		h.logger.Error("failed to encode clinic settings", "error", err)
	}
}

// UpdateSettingsRequest is the request body for updating clinic settings.
type UpdateSettingsRequest struct {
	Name                string   `json:"name,omitempty"`
	Timezone            string   `json:"timezone,omitempty"`
	BookingWindowDays   *int     `json:"booking_window_days,omitempty"`
	SlotMinutes         *int     `json:"slot_minutes,omitempty"`
	ExcludePartialSlots *bool    `json:"exclude_partial_slots,omitempty"`
	NotifyEmails        []string `json:"notify_emails,omitempty"`
}

// UpdateSettings applies a partial update to the clinic settings.
// PUT /admin/clinic/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cfg, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get clinic settings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Name != "" {
		cfg.Name = req.Name
	}
	if req.Timezone != "" {
		cfg.Timezone = req.Timezone
	}
	if req.BookingWindowDays != nil {
		cfg.BookingWindowDays = *req.BookingWindowDays
	}
	if req.SlotMinutes != nil {
		cfg.SlotMinutes = *req.SlotMinutes
	}
	if req.ExcludePartialSlots != nil {
		cfg.ExcludePartialSlots = *req.ExcludePartialSlots
	}
	if req.NotifyEmails != nil {
		cfg.NotifyEmails = req.NotifyEmails
	}

	if err := h.store.Set(r.Context(), cfg); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to save clinic settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	h.logger.Info("clinic settings updated",
		"name", cfg.Name,
		"timezone", cfg.Timezone,
		"booking_window_days", cfg.BookingWindowDays,
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		h.logger.Error("failed to encode clinic settings", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
