package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/auth"
	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/clinic"
	"github.com/wolfman30/clinic-booking/internal/doctors"
	httpmiddleware "github.com/wolfman30/clinic-booking/internal/http/middleware"
	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	CatalogHandler      *catalog.Handler
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	PatientsHandler     *patients.Handler
	AuthHandler         *auth.Handler
	ClinicHandler       *clinic.Handler
	AccessTokens        httpmiddleware.AccessParser
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	HealthChecks        map[string]HealthCheck
	CORSAllowedOrigins  []string
	// AuthRateLimiter throttles /auth per client IP. Its eviction loop is
	// owned by the caller.
	AuthRateLimiter     *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.CatalogHandler != nil {
		r.Get("/specialties", cfg.CatalogHandler.ListSpecialties)
		r.Get("/specialties/{title}", cfg.CatalogHandler.GetSpecialty)
		r.Get("/services/{title}", cfg.CatalogHandler.GetService)
	}
	if cfg.DoctorsHandler != nil {
		r.Get("/doctors", cfg.DoctorsHandler.List)
		r.Get("/doctors/{id}", cfg.DoctorsHandler.Get)
		r.Get("/doctors/{id}/availability", cfg.DoctorsHandler.Availability)
	}
	if cfg.AppointmentsHandler != nil && cfg.AccessTokens != nil {
		r.With(httpmiddleware.OptionalPatientAuth(cfg.AccessTokens)).Post("/appointments", cfg.AppointmentsHandler.Book)
		r.Get("/appointments/view", cfg.AppointmentsHandler.ViewByToken)
	}

	if cfg.AuthHandler != nil {
		r.Route("/auth", func(authRoutes chi.Router) {
			if cfg.AuthRateLimiter != nil {
				authRoutes.Use(cfg.AuthRateLimiter.Middleware)
			}
			authRoutes.Post("/login", cfg.AuthHandler.Login)
			authRoutes.Post("/verify-code", cfg.AuthHandler.VerifyCode)
			authRoutes.Post("/logout", cfg.AuthHandler.Logout)
		})
	}

	if cfg.AccessTokens != nil && (cfg.PatientsHandler != nil || cfg.AppointmentsHandler != nil) {
		r.Route("/my", func(my chi.Router) {
			my.Use(httpmiddleware.PatientAuth(cfg.AccessTokens))
			if cfg.PatientsHandler != nil {
				my.Get("/info", cfg.PatientsHandler.GetInfo)
				my.Put("/info", cfg.PatientsHandler.UpdateInfo)
			}
			if cfg.AppointmentsHandler != nil {
				my.Route("/appointments", func(appts chi.Router) {
					appts.Get("/", cfg.AppointmentsHandler.List)
					appts.Get("/{id}", cfg.AppointmentsHandler.Get)
					appts.Put("/{id}", cfg.AppointmentsHandler.Reschedule)
					appts.Patch("/{id}", cfg.AppointmentsHandler.Cancel)
					appts.Get("/{id}/reschedule-options", cfg.AppointmentsHandler.RescheduleOptions)
				})
			}
		})
	}

	// Admin routes are mounted only when a signing secret is configured.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.ClinicHandler != nil {
				admin.Mount("/clinic", cfg.ClinicHandler.Routes())
			}
			if cfg.DoctorsHandler != nil {
				admin.Put("/doctors/{id}/schedule", cfg.DoctorsHandler.PutSchedule)
			}
			if cfg.AppointmentsHandler != nil {
				admin.Patch("/appointments/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
			}
		})
	}

	return r
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				resp["status"] = "degraded"
				resp[name] = err.Error()
				continue
			}
			resp[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
