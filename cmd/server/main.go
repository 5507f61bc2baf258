package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"onboarding/internal/batch"
	docmetrics "onboarding/internal/document/metrics"
	docservice "onboarding/internal/document/service"
	"onboarding/internal/onboarding"
	otpmetrics "onboarding/internal/otp/metrics"
	otpservice "onboarding/internal/otp/service"
	"onboarding/internal/platform/config"
	"onboarding/internal/platform/httpserver"
	"onboarding/internal/platform/kafka"
	"onboarding/internal/platform/logger"
	"onboarding/internal/platform/metrics"
	"onboarding/internal/platform/redis"
	"onboarding/internal/platform/tracing"
	"onboarding/internal/presence"
	processmetrics "onboarding/internal/process/metrics"
	processservice "onboarding/internal/process/service"
	"onboarding/internal/providers"
	"onboarding/internal/providers/factory"
	"onboarding/internal/scheduler"
	schedulermetrics "onboarding/internal/scheduler/metrics"
	verificationmetrics "onboarding/internal/verification/metrics"
	"onboarding/internal/verification/models"
	verificationservice "onboarding/internal/verification/service"
	"onboarding/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

// hook is the onboarding subsystem as the engine and the batch jobs use it.
type hook interface {
	onboarding.Provider
	onboarding.ActivationRemover
}

// main wires the engine, starts the batch scheduler and the ops server, and
// stops both on SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	reg := metrics.NewRegistry()
	checks := map[string]httpserver.HealthCheck{}

	st, err := openStores(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer st.close()
	if st.db != nil {
		checks["postgres"] = st.db.PingContext
	}

	var subsystem hook = onboarding.NewLoggingProvider(log)
	if cfg.Onboarding.HookURL != "" {
		subsystem = onboarding.NewHTTPClient(cfg.Onboarding.HookURL, cfg.Onboarding.HookTimeout, nil)
	}
	var events onboarding.Provider = subsystem
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ProcessEventTopic)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return fmt.Errorf("ensure process event topic: %w", err)
		}
		checks["kafka"] = producer.Health
		events = onboarding.NewKafkaEventProvider(subsystem, producer)
		log.InfoContext(ctx, "publishing process events", "topic", cfg.Kafka.ProcessEventTopic)
	}

	callerOpts := []providers.CallerOption{providers.WithCallMetrics(providers.NewMetrics(reg))}
	if cfg.Providers.CircuitFailures > 0 {
		callerOpts = append(callerOpts, providers.WithCircuitBreaker(
			circuit.WithFailureThreshold(cfg.Providers.CircuitFailures),
			circuit.WithCooldown(cfg.Providers.CircuitCooldown),
		))
	}
	caller := providers.NewCaller(cfg.Providers.Timeout, callerOpts...)
	providerSet, err := factory.NewRegistry().Build(cfg.Providers, caller)
	if err != nil {
		return err
	}
	pipeline, err := models.ParsePipeline(cfg.Onboarding.Phases)
	if err != nil {
		return fmt.Errorf("ONBOARDING_PHASES: %w", err)
	}

	otp, err := otpservice.New(st.otps, st.processes, events,
		otpservice.WithConfig(otpservice.Config{
			Length:      cfg.Otp.Length,
			Expiration:  cfg.Otp.Expiration,
			MaxAttempts: cfg.Otp.MaxAttempts,
			HashCost:    cfg.Otp.HashCost,
		}),
		otpservice.WithLogger(log),
		otpservice.WithMetrics(otpmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	processes, err := processservice.New(st.processes, otp, events,
		processservice.WithErrorScoreLimit(cfg.Onboarding.ErrorScoreLimit),
		processservice.WithLogger(log),
		processservice.WithMetrics(processmetrics.New(reg)),
		processservice.WithRunner(st.runner),
	)
	if err != nil {
		return err
	}
	documents, err := docservice.New(st.documents, providerSet.Document,
		docservice.WithLogger(log),
		docservice.WithMetrics(docmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	presenceCheck, err := presence.New(providerSet.Presence, presence.WithLogger(log))
	if err != nil {
		return err
	}
	verifications, err := verificationservice.New(st.verifications, processes, otp, events, documents, presenceCheck, st.runner,
		verificationservice.WithPipeline(pipeline),
		verificationservice.WithClientEvaluation(cfg.Onboarding.ClientEvaluationEnabled),
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(verificationmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	processes.SetVerificationTerminator(verifications)

	log.InfoContext(ctx, "verification engine ready",
		"document_provider", documents.ProviderName(),
		"presence_provider", presenceCheck.ProviderName(),
		"phases", cfg.Onboarding.Phases,
	)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Scheduler.Enabled {
		locker, closeLocker, err := newLocker(ctx, cfg, st, checks, log)
		if err != nil {
			return err
		}
		defer closeLocker()

		schedMetrics := schedulermetrics.New(reg)
		sched, err := scheduler.New(locker,
			scheduler.WithOwner(cfg.Scheduler.Owner),
			scheduler.WithLeaseHold(cfg.Scheduler.LockMinHold, cfg.Scheduler.LockMaxHold),
			scheduler.WithLogger(log),
			scheduler.WithMetrics(schedMetrics),
		)
		if err != nil {
			return err
		}
		jobs, err := batch.New(documents, verifications, otp, processes, subsystem, batch.Config{
			VerificationExpiration: cfg.Onboarding.VerificationExpiration,
			ActivationExpiration:   cfg.Onboarding.ActivationExpiration,
		}, batch.WithLogger(log), batch.WithMetrics(schedMetrics))
		if err != nil {
			return err
		}
		if err := jobs.Register(sched, cfg.Scheduler.Interval); err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	} else {
		log.WarnContext(ctx, "scheduler disabled; pending verifications advance only on user events")
	}

	srv := httpserver.New(cfg.OpsAddr, httpserver.NewOpsRouter(reg, checks))
	g.Go(func() error {
		log.InfoContext(ctx, "ops server listening", "addr", cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("onboarding stopped")
	return err
}

// newLocker builds the lease store selected by SCHEDULER_LOCK_BACKEND.
func newLocker(ctx context.Context, cfg config.Server, st *stores, checks map[string]httpserver.HealthCheck, log *slog.Logger) (scheduler.Locker, func(), error) {
	switch cfg.Scheduler.LockBackend {
	case "redis":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		checks["redis"] = client.Health
		return scheduler.NewRedisLocker(client.Client), func() { _ = client.Close() }, nil
	case "postgres":
		if st.db == nil {
			return nil, nil, errors.New("postgres lease store requires DATABASE_URL")
		}
		return scheduler.NewPostgresLocker(st.db), func() {}, nil
	default:
		log.WarnContext(ctx, "scheduler leases are process-local; run a single instance")
		return scheduler.NewMemoryLocker(), func() {}, nil
	}
}
