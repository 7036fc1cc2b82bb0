package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildsafe/siteward/internal/metrics"
	"github.com/buildsafe/siteward/internal/middleware"
)

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps bundles everything NewRouter needs.
type RouterDeps struct {
	Logger *slog.Logger

	// middleware dependencies
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	StatusRecorder    middleware.HTTPStatusRecorder

	// public flows
	CheckInService   CheckInServiceInterface
	InductionService InductionServiceInterface
	SWMSService      SWMSServiceInterface
	MaxUploadSize    int64

	// admin
	AuthService          AuthServiceInterface
	AuthConfig           AuthHandlerConfig
	JobSiteService       JobSiteServiceInterface
	ContractorService    ContractorServiceInterface
	AttendanceService    AttendanceServiceInterface
	CertificationService CertificationServiceInterface
	SWMSTokenService     SWMSTokenServiceInterface

	// operational endpoints
	DB              Pinger
	MetricsGatherer prometheus.Gatherer
}

// NewRouter wires every API endpoint and the middleware chain.
//
// Middleware order, outermost first:
//
//	CORS → Recovery → Logging → SecurityHeaders
//
// The admin group adds Session → CSRF on top of that.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	checkInHandler := NewCheckInHandler(deps.CheckInService)
	inductionHandler := NewInductionHandler(deps.InductionService)
	swmsHandler := NewSWMSHandler(deps.SWMSService, deps.MaxUploadSize)
	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	jobSiteHandler := NewJobSiteHandler(deps.JobSiteService)
	contractorHandler := NewContractorHandler(deps.ContractorService)
	attendanceHandler := NewAttendanceHandler(deps.AttendanceService)
	certificationHandler := NewCertificationHandler(deps.CertificationService)
	swmsTokenHandler := NewSWMSTokenHandler(deps.SWMSTokenService)

	// --- public, anonymous routes ---

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.With(deps.RateLimiter.CheckInMiddleware()).
		Post("/api/checkin", checkInHandler.CheckIn)
	r.With(deps.RateLimiter.InductionMiddleware()).
		Post("/api/induction", inductionHandler.Submit)

	// token-gated contractor portal
	r.Route("/api/swms", func(r chi.Router) {
		r.Get("/validate", swmsHandler.Validate)
		r.Post("/documents", swmsHandler.Submit)
	})

	// --- admin session routes ---

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- authenticated admin routes ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/api/admin", func(r chi.Router) {
			r.Route("/job-sites", func(r chi.Router) {
				r.Get("/", jobSiteHandler.List)
				r.Post("/", jobSiteHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", jobSiteHandler.Get)
					r.Put("/", jobSiteHandler.Update)
					r.Delete("/", jobSiteHandler.Deactivate)
					r.Get("/swms", swmsHandler.ListBySite)
				})
			})

			r.Route("/contractors", func(r chi.Router) {
				r.Get("/", contractorHandler.List)
				r.Post("/", contractorHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", contractorHandler.Get)
					r.Put("/", contractorHandler.Update)
					r.Delete("/", contractorHandler.Delete)
				})
			})

			r.Get("/attendances", attendanceHandler.List)
			r.Post("/certifications", certificationHandler.Review)
			r.Get("/workers/{id}/certifications", certificationHandler.ListByWorker)
			r.Post("/swms-tokens", swmsTokenHandler.Issue)
		})
	})

	// --- operational endpoints ---

	r.Get("/health", healthHandler(deps.DB))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
