package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Handler serves the public catalog.
type Handler struct {
	directory *Directory
	logger    *logging.Logger
}

// NewHandler creates a catalog HTTP handler.
func NewHandler(directory *Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{directory: directory, logger: logger}
}

// ListSpecialties handles GET /specialties.
func (h *Handler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.directory.ListSpecialties(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialties": specialties})
}

// GetSpecialty handles GET /specialties/{title}.
func (h *Handler) GetSpecialty(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(chi.URLParam(r, "title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	detail, err := h.directory.GetSpecialty(r.Context(), title)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetService handles GET /services/{title}?doctor_id=.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(chi.URLParam(r, "title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	var doctorID int64
	if raw := r.URL.Query().Get("doctor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid doctor_id")
			return
		}
		doctorID = id
	}
	view, err := h.directory.GetService(r.Context(), title, doctorID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSpecialtyNotFound), errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrServiceNotOffered):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("catalog request failed", "error", err)
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
