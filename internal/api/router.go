package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/webdoctor/ehr-server/internal/appointment"
	"github.com/webdoctor/ehr-server/internal/ehr"
)

type RouterConfig struct {
	Appointments *appointment.Service
	EHR          *ehr.Service
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment lifecycle
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Appointments))
		r.Get("/", listAppointmentsHandler(cfg.Appointments))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
		r.Patch("/{id}", rescheduleAppointmentHandler(cfg.Appointments))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
	})

	// Profiles
	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", registerDoctorHandler(cfg.EHR))
		r.Get("/", listDoctorsHandler(cfg.EHR))
		r.Get("/{id}", getDoctorHandler(cfg.EHR))
		r.Get("/{id}/patients", listDoctorPatientsHandler(cfg.EHR))
		r.Get("/{id}/connection-requests", listConnectionRequestsHandler(cfg.EHR))
	})

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", registerPatientHandler(cfg.EHR))
		r.Get("/{id}", getPatientHandler(cfg.EHR))
		r.Put("/{id}/vitals", updateVitalsHandler(cfg.EHR))
		r.Post("/{id}/medications", prescribeHandler(cfg.EHR))
		r.Get("/{id}/medications", listMedicationsHandler(cfg.EHR))
		r.Post("/{id}/reports", addReportHandler(cfg.EHR))
		r.Get("/{id}/reports", listReportsHandler(cfg.EHR))
	})

	// Connection approval flow
	r.Route("/connection-requests", func(r chi.Router) {
		r.Post("/", requestConnectionHandler(cfg.EHR))
		r.Post("/{id}/approve", approveConnectionHandler(cfg.EHR))
		r.Post("/{id}/reject", rejectConnectionHandler(cfg.EHR))
	})

	r.Route("/medications", func(r chi.Router) {
		r.Patch("/{id}", updateMedicationHandler(cfg.EHR))
		r.Post("/{id}/discontinue", discontinueMedicationHandler(cfg.EHR))
		r.Delete("/{id}", deleteMedicationHandler(cfg.EHR))
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/{id}", getReportHandler(cfg.EHR))
		r.Patch("/{id}", updateReportHandler(cfg.EHR))
		r.Delete("/{id}", deleteReportHandler(cfg.EHR))
	})

	return r
}
