package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/webdoctor/ehr-server/internal/api"
	"github.com/webdoctor/ehr-server/internal/appointment"
	"github.com/webdoctor/ehr-server/internal/config"
	"github.com/webdoctor/ehr-server/internal/db"
	"github.com/webdoctor/ehr-server/internal/ehr"
	"github.com/webdoctor/ehr-server/internal/observability"
	redisclient "github.com/webdoctor/ehr-server/internal/redis"
	"github.com/webdoctor/ehr-server/internal/rooms"
	"github.com/webdoctor/ehr-server/internal/scheduler"
)

const version = "1.4.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.Init("api-server", "dev")
		observability.L().Fatal().Err(err).Msg("config load error")
	}

	observability.Init("api-server", cfg.Env)
	log := observability.L()

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	roomClient := rooms.NewHTTPClient(rooms.Options{
		APIURL:      cfg.HMSAPIURL,
		LinkBaseURL: cfg.HMSLinkBaseURL,
		Token:       cfg.HMSToken,
		TemplateID:  cfg.HMSTemplateID,
		Timeout:     cfg.HMSTimeout,
		Retries:     cfg.HMSRetries,
	})

	sched := scheduler.NewRedisScheduler(rdb)
	locker := redisclient.NewRedisAppointmentLocker(rdb, cfg.LockTTL)

	apptRepo := appointment.NewPgRepository(pgPool)
	apptSvc := appointment.NewService(apptRepo, roomClient, sched, locker, cfg.CompletionDelay, log.With().Str("component", "appointments").Logger())

	ehrRepo := ehr.NewPgRepository(pgPool)
	ehrSvc := ehr.NewService(ehrRepo, log.With().Str("component", "ehr").Logger())

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		EHR:          ehrSvc,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("http server error")
	case <-rootCtx.Done():
	}

	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
}
