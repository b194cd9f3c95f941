package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-booking/internal/auth"
)

// asPatient stands in for the patient auth middleware.
func asPatient(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id != uuid.Nil {
				r = r.WithContext(auth.WithPatientID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(f *fixture, patientID uuid.UUID) http.Handler {
	h := NewHandler(f.svc, nil)
	r := chi.NewRouter()
	r.Use(asPatient(patientID))
	r.Post("/appointments", h.Book)
	r.Get("/appointments/view", h.ViewByToken)
	r.Get("/my/appointments", h.List)
	r.Get("/my/appointments/{id}", h.Get)
	r.Put("/my/appointments/{id}", h.Reschedule)
	r.Patch("/my/appointments/{id}", h.Cancel)
	r.Get("/my/appointments/{id}/reschedule-options", h.RescheduleOptions)
	r.Patch("/admin/appointments/{id}/status", h.UpdateStatus)
	return r
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	router.ServeHTTP(rec, req)
	return rec
}

const anonymousBooking = `{
	"doctor_id": 1, "service_id": 5, "date": "2025-12-09", "time": "09:30",
	"patient": {"phone": "+7 (900) 123-45-67", "first_name": "Ivan", "last_name": "Petrov", "birth_date": "1990-05-01"}
}`

func TestHandlerBookAndView(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f, uuid.Nil)

	rec := serve(router, http.MethodPost, "/appointments", anonymousBooking)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result BookingResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "3000.00", result.Price)
	assert.NotEmpty(t, result.Token)

	rec = serve(router, http.MethodPost, "/appointments", anonymousBooking)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodGet, "/appointments/view?token="+result.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view View
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, result.Appointment.ID, view.ID)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/appointments/view", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/appointments/view?token=nope", "").Code)
}

func TestHandlerBookErrors(t *testing.T) {
	router := newTestRouter(newFixture(), uuid.Nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"missing date", `{"doctor_id":1,"service_id":5,"time":"09:00"}`, http.StatusBadRequest},
		{"unknown doctor", `{"doctor_id":2,"service_id":6,"date":"2025-12-09","time":"09:00"}`, http.StatusBadRequest},
		{"unknown service", `{"doctor_id":1,"service_id":99,"date":"2025-12-09","time":"09:00"}`, http.StatusNotFound},
		{"outside hours", `{"doctor_id":1,"service_id":5,"date":"2025-12-09","time":"12:00"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/appointments", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, mustField(t, rec.Body.Bytes(), "error"))
		})
	}
}

func TestHandlerPatientRoutes(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	result, err := f.svc.Book(context.Background(), owner, bookingForm("09:00"))
	require.NoError(t, err)
	path := "/my/appointments/" + strconv.FormatInt(result.Appointment.ID, 10)

	anonymous := newTestRouter(f, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, http.MethodGet, "/my/appointments", "").Code)

	stranger := newTestRouter(f, uuid.New())
	assert.Equal(t, http.StatusNotFound, serve(stranger, http.MethodGet, path, "").Code)

	router := newTestRouter(f, owner)
	rec := serve(router, http.MethodGet, "/my/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Appointments []View `json:"appointments"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Appointments, 1)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/my/appointments/abc", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path+"/reschedule-options", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPut, path, `{"date":"tomorrow","time":"09:00"}`).Code)

	rec = serve(router, http.MethodPut, path, `{"date":"2025-12-09","time":"10:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPatch, path, `{"status":"completed"}`).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPatch, path, "").Code)
	assert.Equal(t, http.StatusConflict, serve(router, http.MethodPatch, path, `{"status":"cancelled"}`).Code)
}

func TestHandlerAdminStatus(t *testing.T) {
	f := newFixture()
	result, err := f.svc.Book(context.Background(), uuid.New(), bookingForm("09:00"))
	require.NoError(t, err)
	router := newTestRouter(f, uuid.Nil)
	path := "/admin/appointments/" + strconv.FormatInt(result.Appointment.ID, 10) + "/status"

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPatch, path, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPatch, path, `{"status":"pending"}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodPatch, "/admin/appointments/999/status", `{"is_paid":true}`).Code)

	rec := serve(router, http.MethodPatch, path, `{"status":"completed","is_paid":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"completed"`, mustField(t, rec.Body.Bytes(), "status"))
}

func mustField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[field])
}
