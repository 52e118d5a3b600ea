package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"aegis/internal/audit"
	auditmetrics "aegis/internal/audit/metrics"
	auditfile "aegis/internal/audit/store/file"
	auditpg "aegis/internal/audit/store/postgres"
	"aegis/internal/manager"
	managermetrics "aegis/internal/manager/metrics"
	"aegis/internal/notify"
	"aegis/internal/notify/kafka"
	"aegis/internal/patterns"
	"aegis/internal/permission"
	"aegis/internal/platform/config"
	"aegis/internal/platform/httpserver"
	"aegis/internal/platform/logger"
	platformredis "aegis/internal/platform/redis"
	rlservice "aegis/internal/ratelimit/service"
	rlmem "aegis/internal/ratelimit/store/memory"
	rlredis "aegis/internal/ratelimit/store/redis"
	"aegis/internal/secrets"
	"aegis/internal/threat"
	threatmetrics "aegis/internal/threat/metrics"
	transporthttp "aegis/internal/transport/http"
	"aegis/internal/validation"
	validationmetrics "aegis/internal/validation/metrics"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secretStore, err := secrets.NewFileStore(cfg.SecretsDir)
	if err != nil {
		return err
	}
	signingKey, err := secrets.LoadSigningKey(ctx, cfg.SigningKey, secretStore, log)
	if err != nil {
		return err
	}

	// Rate limit store: Redis when configured, in-process otherwise.
	var limiterStore rlservice.Store = rlmem.New()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiterStore = rlredis.New(redisClient.Client)
		log.Info("rate limiting backed by redis")
	}
	limiter, err := rlservice.New(limiterStore, rlservice.WithLogger(log))
	if err != nil {
		return err
	}

	// Audit pipeline: file store is the chain-verified primary, Postgres an
	// optional query mirror, Kafka an optional alert channel.
	fileStore, err := auditfile.New(cfg.AuditFilePath)
	if err != nil {
		return err
	}
	defer fileStore.Close()

	auditOpts := []audit.Option{
		audit.WithLogger(log),
		audit.WithMetrics(auditmetrics.New()),
		audit.WithMaskPII(cfg.MaskPII),
		audit.WithRetention(cfg.AuditRetention),
		audit.WithFlushInterval(cfg.AuditFlushInt),
		audit.WithRealTimeAlerts(cfg.RealTimeAlerts),
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		mirror, err := auditpg.NewWithDB(db)
		if err != nil {
			return err
		}
		auditOpts = append(auditOpts, audit.WithMirror(mirror))
		log.Info("audit events mirrored to postgres")
	}

	notifier := notify.Notifier(notify.NewLogNotifier(log))
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close(context.Background())
		notifier = notify.Multi{notifier, publisher}
		log.Info("alerts published to kafka", "topic", cfg.KafkaTopic)
	}
	auditOpts = append(auditOpts, audit.WithNotifier(notifier))

	auditor, err := audit.New(fileStore, signingKey, auditOpts...)
	if err != nil {
		return err
	}

	// Subsystems in dependency order: the validator owns the pattern library
	// and rate limits, detection references the same patterns, permission
	// tables come next, monitoring starts last inside Run.
	validator, err := validation.New(patterns.NewLibrary(),
		validation.WithLogger(log),
		validation.WithMetrics(validationmetrics.New()),
		validation.WithAuditor(auditor),
		validation.WithLimiter(limiter),
	)
	if err != nil {
		return err
	}

	authorizer, err := permission.New(signingKey,
		permission.WithLogger(log),
		permission.WithAuditor(auditor),
		permission.WithLimiter(limiter),
		permission.WithSessionTimeout(cfg.SessionTimeout),
	)
	if err != nil {
		return err
	}

	threatOpts := []threat.Option{
		threat.WithLogger(log),
		threat.WithMetrics(threatmetrics.New()),
		threat.WithAuditor(auditor),
		threat.WithSensitivity(cfg.Sensitivity),
		threat.WithAnomalyThreshold(cfg.AnomalyThreshold),
		threat.WithAdaptiveLearning(cfg.AdaptiveLearning),
		threat.WithPatternWindow(cfg.PatternWindow, cfg.MaxTrackedEvents),
		threat.WithMaxHistory(cfg.MaxTrackedEvents),
	}
	if cfg.AutoResponse {
		threatOpts = append(threatOpts, threat.WithAutoResponse(authorizer))
	}
	detector := threat.New(threatOpts...)

	mgr := manager.New(cfg.Mode, manager.Deps{
		Validator:  validator,
		Auditor:    auditor,
		Authorizer: authorizer,
		Detector:   detector,
		Sweeper:    limiter,
	},
		manager.WithLogger(log),
		manager.WithMetrics(managermetrics.New()),
	)

	var adminTokenHash string
	if cfg.AdminToken != "" {
		adminTokenHash, err = secrets.Hash(cfg.AdminToken)
		if err != nil {
			return err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer)
	transporthttp.New(mgr, adminTokenHash, log).Register(router)
	server := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mgr.Run(ctx) })
	g.Go(func() error {
		log.Info("admin API listening", "addr", cfg.Addr, "mode", string(cfg.Mode))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
