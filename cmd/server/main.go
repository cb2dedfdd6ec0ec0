package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"table-reservation-service/internal/domain/repository"
	"table-reservation-service/internal/infrastructure/auth"
	"table-reservation-service/internal/infrastructure/config"
	"table-reservation-service/internal/infrastructure/persistence"
	"table-reservation-service/internal/infrastructure/router"
	reservationRepo "table-reservation-service/internal/interface/repository"
	"table-reservation-service/internal/usecase"
	"table-reservation-service/pkg/logger"
	"table-reservation-service/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Reservation Service", "version", cfg.AppVersion, "env", cfg.AppEnv, "store", cfg.StoreDriver)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics registry shared by the service and /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(cfg.MetricsNamespace, registry)

	validator := usecase.NewReservationValidator()

	// Set up the reservation store
	reservations, closeStore, err := openStore(ctx, cfg, validator, log)
	if err != nil {
		log.Fatal("Failed to connect to reservation store", "driver", cfg.StoreDriver, "error", err)
	}

	// Set up lifecycle event publishing
	var events repository.EventRepository
	if len(cfg.KafkaBrokers) > 0 {
		events = reservationRepo.NewKafkaEventRepository(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("Publishing reservation events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		log.Info("KAFKA_BROKERS not set, reservation events are disabled")
	}

	service := usecase.NewReservationService(reservations, events, validator, appMetrics, log)

	guard := auth.NewStaffGuard(cfg.StaffJWTSecret)
	if !guard.Enabled() {
		log.Warn("STAFF_JWT_SECRET not set, staff endpoints are open to any caller")
	}

	e := router.New(router.Options{
		Service:     service,
		Guard:       guard,
		Logger:      log,
		Gatherer:    registry,
		Version:     cfg.AppVersion,
		Development: cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	if events != nil {
		if err := events.Close(); err != nil {
			log.Error("Event publisher close error", "error", err)
		}
	}

	if err := closeStore(shutdownCtx); err != nil {
		log.Error("Reservation store close error", "error", err)
	}

	log.Info("Reservation Service stopped")
}

// openStore connects the configured driver and returns the repository with its closer
func openStore(ctx context.Context, cfg *config.Config, validator *usecase.ReservationValidator, log logger.Logger) (repository.ReservationRepository, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		repo, err := reservationRepo.NewGormReservationRepository(ctx, db, validator)
		if err != nil {
			_ = persistence.ClosePostgres(db)
			return nil, nil, err
		}
		return repo, func(context.Context) error { return persistence.ClosePostgres(db) }, nil

	case config.DriverMemory:
		log.Warn("Using in-memory reservation store, data is lost on restart")
		return reservationRepo.NewMemoryReservationRepository(validator), func(context.Context) error { return nil }, nil

	default:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, persistence.MongoOptions{
			URI:        cfg.MongoURI,
			Username:   cfg.MongoUser,
			Password:   cfg.MongoPassword,
			AuthSource: cfg.MongoAuthSource,
			AppName:    "table-reservation-service",
		})
		if err != nil {
			return nil, nil, err
		}
		db := persistence.GetDatabase(client, cfg.MongoDB)
		repo, err := reservationRepo.NewMongoReservationRepository(ctx, db, cfg.MongoCollection, log)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, client.Disconnect, nil
	}
}
