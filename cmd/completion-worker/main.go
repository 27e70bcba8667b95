package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/webdoctor/ehr-server/internal/appointment"
	"github.com/webdoctor/ehr-server/internal/config"
	"github.com/webdoctor/ehr-server/internal/db"
	"github.com/webdoctor/ehr-server/internal/observability"
	redisclient "github.com/webdoctor/ehr-server/internal/redis"
	"github.com/webdoctor/ehr-server/internal/rooms"
	"github.com/webdoctor/ehr-server/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.Init("completion-worker", "dev")
		observability.L().Fatal().Err(err).Msg("config load error")
	}

	observability.Init("completion-worker", cfg.Env)
	log := observability.L()

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("completion-worker starting up")

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

	repo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(repo, roomClient, sched, locker, cfg.CompletionDelay, log.With().Str("component", "appointments").Logger())

	worker := scheduler.NewWorker(sched, cfg.WorkerInterval, log.With().Str("component", "worker").Logger())
	worker.Register(appointment.CompletionHandler, svc.HandleCompletion)

	worker.Run(rootCtx)

	log.Info().Msg("completion-worker stopped")
}
