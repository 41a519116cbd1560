package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaidashi/catering-api/internal/api"
	"github.com/vaidashi/catering-api/internal/authz"
	"github.com/vaidashi/catering-api/internal/clients"
	"github.com/vaidashi/catering-api/internal/config"
	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/handlers"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/loyalty"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/outbox"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	"github.com/vaidashi/catering-api/internal/service"
	"github.com/vaidashi/catering-api/pkg/circuitbreaker"
	"github.com/vaidashi/catering-api/pkg/kafka"
	"github.com/vaidashi/catering-api/pkg/logger"
	"github.com/vaidashi/catering-api/pkg/rabbitmq"
	"github.com/vaidashi/catering-api/pkg/retry"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	l.Info("Starting catering API...", "env", cfg.Env)

	db, err := database.New(cfg, l)

	if err != nil {
		l.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		l.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db, l)
	quoteRepo := repository.NewQuoteRepository(db, l)
	reservationRepo := repository.NewReservationRepository(db, l)
	transactionRepo := repository.NewTransactionRepository(db, l)
	inventoryRepo := repository.NewInventoryRepository(db, l)
	loyaltyRepo := repository.NewLoyaltyRepository(db, l)
	auditRepo := repository.NewAuditRepository(db, l)
	outboxRepo := repository.NewOutboxRepository(db, l)
	dlqRepo := repository.NewDeadLetterRepository(db, l)

	// Roles: the built-in policy, replaced by the identity service's when one is configured
	policy := authz.DefaultPolicy()

	if cfg.Identity.URL != "" {
		breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.CircuitBreakerConfig{
			Name:             "identity",
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 1,
		})
		identity := clients.NewIdentityClient(cfg.Identity.URL, breaker, l)
		refresher := authz.NewRefresher(identity, policy, cfg.Identity.RefreshInterval, l)
		refresher.Start()
		defer refresher.Stop()
	}

	// Services
	engine := lifecycle.NewEngine(policy)
	rates := pricing.TaxRates{Primary: cfg.Pricing.TaxRatePrimary, Secondary: cfg.Pricing.TaxRateSecondary}
	program := loyalty.DefaultProgram(cfg.Loyalty.PointsPerDollar, cfg.Loyalty.MinimumRedemption)

	orderService := service.NewOrderService(db, orderRepo, outboxRepo, loyaltyRepo, engine, rates, program, l)
	quoteService := service.NewQuoteService(db, quoteRepo, orderRepo, outboxRepo, engine, rates, l)
	reservationService := service.NewReservationService(db, reservationRepo, outboxRepo, engine, l)
	financeService := service.NewFinanceService(db, transactionRepo, outboxRepo, policy, l)
	inventoryService := service.NewInventoryService(inventoryRepo, cfg.Inventory.ExpiryHorizonDays, nil, l)
	auditService := service.NewAuditService(auditRepo, policy, l)
	loyaltyService := service.NewLoyaltyService(loyaltyRepo, program)

	// Outbox delivery: Kafka audit stream plus client notifications
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, "catering-api", l)

	if err != nil {
		l.Error("Failed to create Kafka producer", "error", err)
		os.Exit(1)
	}
	defer kafkaProducer.Close()

	delivery := []outbox.MessageHandler{outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.LifecycleTopic, l)}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(rabbitmq.DialURL(cfg.RabbitMQ.URL), cfg.RabbitMQ.Exchange, l)

		if err != nil {
			l.Warn("RabbitMQ unavailable, client notifications are only logged", "error", err)
			delivery = append(delivery, outbox.NewLoggingHandler(l))
		} else {
			defer publisher.Close()
			delivery = append(delivery, outbox.NewNotificationHandler(publisher, l))
		}
	} else {
		delivery = append(delivery, outbox.NewLoggingHandler(l))
	}

	fanout := outbox.NewFanoutHandler(delivery...)

	outboxProcessor := outbox.NewProcessor(outboxRepo, dlqRepo, outbox.ProcessorConfig{
		PollingInterval: cfg.Outbox.PollInterval,
		BatchSize:       cfg.Outbox.BatchSize,
		MaxRetries:      cfg.Outbox.MaxRetries,
	}, l)

	deadLetterProcessor := outbox.NewDeadLetterProcessor(dlqRepo, l, &outbox.DeadLetterProcessorConfig{
		PollingInterval: cfg.Outbox.DLQPollInterval,
		BatchSize:       5,
		MaxRetries:      cfg.Outbox.DLQMaxRetries,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 1 * time.Second,
			MaxInterval:     2 * time.Minute,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	})

	for _, eventType := range []string{models.EventEntityCreated, models.EventEntityTransitioned, models.EventTransactionRecorded} {
		outboxProcessor.RegisterHandler(eventType, fanout)
		deadLetterProcessor.RegisterHandler(eventType, fanout)
	}

	// Audit log consumer
	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.LifecycleTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, l)

	if err != nil {
		l.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}

	kafkaConsumer.RegisterHandler(cfg.Kafka.LifecycleTopic, handlers.NewAuditEventsHandler(auditService, l))

	outboxProcessor.Start()
	deadLetterProcessor.Start()

	if err := kafkaConsumer.Start(); err != nil {
		// The audit log catches up from the committed offset once the consumer runs again
		l.Error("Failed to start Kafka consumer", "error", err)
	}

	server := api.NewServer(cfg, api.Services{
		Orders:       orderService,
		Quotes:       quoteService,
		Reservations: reservationService,
		Finance:      financeService,
		Inventory:    inventoryService,
		Audit:        auditService,
		Loyalty:      loyaltyService,
		DeadLetters:  dlqRepo,
		Roles:        policy,
		TaxRates:     rates,
		Ping:         db.Ping,
	}, l)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			l.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("Server forced to shutdown", "error", err)
	}

	outboxProcessor.Stop()
	deadLetterProcessor.Stop()

	if err := kafkaConsumer.Stop(); err != nil {
		l.Error("Error stopping Kafka consumer", "error", err)
	}

	l.Info("Server exiting")
}
