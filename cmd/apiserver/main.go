// Command apiserver runs the MailSweep HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailsweep/mailsweep/internal/application/bulkops"
	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/config"
	"github.com/mailsweep/mailsweep/internal/domain/operation"
	"github.com/mailsweep/mailsweep/internal/infrastructure/database/postgres"
	"github.com/mailsweep/mailsweep/internal/infrastructure/database/postgres/repositories"
	"github.com/mailsweep/mailsweep/internal/infrastructure/database/redis"
	"github.com/mailsweep/mailsweep/internal/infrastructure/messaging/kafka"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/mailsweep/mailsweep/internal/interfaces/http"
	"github.com/mailsweep/mailsweep/internal/interfaces/http/handlers"
	"github.com/mailsweep/mailsweep/internal/mail"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.MustLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := prometheus.NewCollector("mailsweep")
	metrics := prometheus.NewAppMetrics(collector)

	invoker, err := mail.NewHTTPInvoker(mail.Options{
		BaseURL: cfg.MailAPI.BaseURL,
		UserID:  cfg.MailAPI.UserID,
		Tokens:  mail.NewStaticTokenSource(cfg.MailAPI.Token),
		Timeout: cfg.MailAPI.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	orch := batch.NewOrchestrator(invoker, batch.Config{
		DeleteChunkSize:   cfg.Batch.DeleteChunkSize,
		MinModifySize:     cfg.Batch.MinModifySize,
		MaxModifySize:     cfg.Batch.MaxModifySize,
		InitialModifySize: cfg.Batch.InitialModifySize,
		InterBatchDelay:   cfg.Batch.InterBatchDelay,
		MicroDelay:        cfg.Batch.MicroDelay,
		MaxRetryAttempts:  cfg.Batch.MaxRetryAttempts,
		InitialBackoff:    cfg.Batch.InitialBackoff,
		MaxBackoff:        cfg.Batch.MaxBackoff,
		BackoffMultiplier: cfg.Batch.BackoffMultiplier,
		FailureThreshold:  cfg.CircuitBreaker.FailureThreshold,
		CoolingOffPeriod:  cfg.CircuitBreaker.CoolingOffPeriod,
		MaxBreakerWait:    cfg.CircuitBreaker.MaxWait,
	}, logger)

	checks := map[string]handlers.ReadinessCheck{}
	deps := bulkops.Deps{
		Executor: orch,
		Metrics:  metrics,
		Logger:   logger,
	}

	if cfg.Database.Enabled {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		var store operation.Repository = repositories.NewOperationRepo(db, metrics)
		deps.Store = store
		checks["postgres"] = func(ctx context.Context) error {
			return postgres.HealthCheck(ctx, db)
		}
		logger.Info("operation store enabled")
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Cache = redis.NewCache(client, "mailsweep:op:", cfg.Redis.TTL)
		checks["redis"] = client.Ping
		logger.Info("result cache enabled")
	}

	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewPublisher(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
		logger.Info("audit publisher enabled", logging.String("topic", cfg.Kafka.Topic))
	}

	svc := bulkops.NewService(deps)
	router := httpiface.NewRouter(httpiface.RouterDeps{
		Service:         svc,
		Logger:          logger,
		ReadinessChecks: checks,
		MetricsHandler:  collector.Handler(),
		RequestMetrics:  metrics,
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	// keep the breaker gauge current
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetBreakerOpen(orch.Breaker().IsOpen())
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
