package appointments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-booking/internal/auth"
	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/doctors"
	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Handler serves booking, patient and admin appointment endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Book handles POST /appointments. A logged-in patient books for themselves.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var form BookingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patientID, _ := auth.PatientIDFromContext(r.Context())
	result, err := h.service.Book(r.Context(), patientID, form)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ViewByToken handles GET /appointments/view?token=.
func (h *Handler) ViewByToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	view, err := h.service.View(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// List handles GET /my/appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.patient(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListForPatient(r.Context(), patientID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

// Get handles GET /my/appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, id, ok := h.patientAndID(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetForPatient(r.Context(), patientID, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Reschedule handles PUT /my/appointments/{id}.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	patientID, id, ok := h.patientAndID(w, r)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.service.Reschedule(r.Context(), patientID, id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Cancel handles PATCH /my/appointments/{id}. The body may be empty or
// {"status": "cancelled"}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	patientID, id, ok := h.patientAndID(w, r)
	if !ok {
		return
	}
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && req.Status != StatusCancelled {
		writeError(w, http.StatusBadRequest, "patients may only cancel appointments")
		return
	}
	view, err := h.service.Cancel(r.Context(), patientID, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RescheduleOptions handles GET /my/appointments/{id}/reschedule-options.
func (h *Handler) RescheduleOptions(w http.ResponseWriter, r *http.Request) {
	patientID, id, ok := h.patientAndID(w, r)
	if !ok {
		return
	}
	schedule, err := h.service.RescheduleOptions(r.Context(), patientID, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointment_id": id, "availability": schedule})
}

// UpdateStatus handles PATCH /admin/appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}
	var req StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := h.service.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) patient(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := auth.PatientIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) patientAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, int64, bool) {
	patientID, ok := h.patient(w, r)
	if !ok {
		return uuid.Nil, 0, false
	}
	id, ok := appointmentID(w, r)
	return patientID, id, ok
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidBooking), errors.Is(err, ErrInvalidStatus),
		errors.Is(err, patients.ErrInvalidPatient), errors.Is(err, catalog.ErrServiceNotOffered):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, doctors.ErrDoctorNotFound),
		errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrNotPending),
		errors.Is(err, patients.ErrDataDoesNotMatch), errors.Is(err, patients.ErrPhoneTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("appointments request failed", "error", err)
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
