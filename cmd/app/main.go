package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"noor-community/internal/config"
	pg "noor-community/internal/infra/db/postgres"
	"noor-community/internal/infra/logging"
	"noor-community/internal/infra/metrics"
	red "noor-community/internal/infra/redis"
	"noor-community/internal/infra/sched"
	"noor-community/internal/infra/web"
	"noor-community/internal/infra/worker"
	"noor-community/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed auth checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	codeRepo := pg.NewRedemptionCodeRepo(pool)
	eventRepo := pg.NewRedemptionEventRepo(pool)
	trialRepo := pg.NewFreeTrialRepo(pool)
	groupRepo := pg.NewGroupRepo(pool)
	memberRepo := pg.NewMembershipRepo(pool)
	requestRepo := pg.NewJoinRequestRepo(pool)
	reactionRepo := pg.NewReactionRepo(pool)
	auditRepo := pg.NewAuditEventRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Audit dispatcher ----
	auditSink := worker.NewAuditDispatcher(auditRepo, cfg.Scheduler.AuditQueueSize, cfg.Scheduler.AuditWorkers, logger)
	auditSink.Start(ctx)
	defer auditSink.Stop()

	// ---- Use cases ----
	redemptionUC := usecase.NewRedemptionUseCase(codeRepo, eventRepo, auditSink, txManager, logger)
	trialUC := usecase.NewTrialUseCase(trialRepo, auditSink, txManager, logger)
	membershipUC := usecase.NewMembershipUseCase(groupRepo, memberRepo, requestRepo, auditSink, txManager, logger)
	reactionUC := usecase.NewReactionUseCase(reactionRepo, logger)
	coordinator := usecase.NewCoordinator(redemptionUC, trialUC, membershipUC, reactionUC, logger)

	// ---- Scheduled workers ----
	trialSweep := sched.NewTrialSweepWorker(cfg.Scheduler.TrialSweepInterval, trialUC, logger)
	go func() { _ = trialSweep.Run(ctx) }()

	codeSweep := sched.NewCodeSweepWorker(cfg.Scheduler.CodeSweepInterval, codeRepo, logger)
	go func() { _ = codeSweep.Run(ctx) }()

	reconciler := sched.NewMemberCountReconciler(cfg.Scheduler.ReconcileInterval, groupRepo, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Security.AdminJWTSecret, cfg.Security.AdminAPIKey, !cfg.Runtime.Dev, "", cfg.Security.SessionTTL)
	server := web.NewServer(coordinator, redemptionUC, membershipUC, reactionUC, auth, rateLimiter, cfg.API, logger)

	go func() {
		err := server.Start(func(r chi.Router) {
			r.Handle("/metrics", promhttp.Handler())
		})
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
