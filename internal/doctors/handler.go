package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-booking/internal/scheduling"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Directory is the doctor behavior the HTTP layer depends on.
type Directory interface {
	List(ctx context.Context) ([]Summary, error)
	Profile(ctx context.Context, id int64) (*Profile, error)
	Availability(ctx context.Context, doctorID int64) (scheduling.AvailabilitySchedule, error)
	SetSchedule(ctx context.Context, doctorID int64, intervals []scheduling.WorkInterval) ([]scheduling.WorkInterval, error)
}

// Handler serves doctor endpoints.
type Handler struct {
	doctors Directory
	logger  *logging.Logger
}

// NewHandler creates a doctors HTTP handler.
func NewHandler(doctors Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{doctors: doctors, logger: logger}
}

// ScheduleRequest is the admin payload replacing a weekly schedule.
type ScheduleRequest struct {
	Schedule []scheduling.WorkInterval `json:"schedule"`
}

// List handles GET /doctors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.doctors.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if docs == nil {
		docs = []Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": docs})
}

// Get handles GET /doctors/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := doctorID(w, r)
	if !ok {
		return
	}
	profile, err := h.doctors.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Availability handles GET /doctors/{id}/availability.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := doctorID(w, r)
	if !ok {
		return
	}
	schedule, err := h.doctors.Availability(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor_id": id, "availability": schedule})
}

// PutSchedule handles PUT /admin/doctors/{id}/schedule.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := doctorID(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.doctors.SetSchedule(r.Context(), id, req.Schedule)
	if err != nil {
		h.fail(w, err)
		return
	}
	if saved == nil {
		saved = []scheduling.WorkInterval{}
	}
	writeJSON(w, http.StatusOK, ScheduleRequest{Schedule: saved})
}

func doctorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("doctors request failed", "error", err)
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
