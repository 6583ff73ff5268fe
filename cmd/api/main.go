package main

import (
	"context"
	"log"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/middleware"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier/email"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/realtime"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/service"
	transport "github.com/MattMattw/Eventhub---your-life-your-event/internal/transport/http"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/transport/http/handler"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/config"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/db"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/kafka"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "eventhub-api")
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{Level: "info", Env: cfg.Env})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("error creating postgres pool: %v", err)
	}
	defer pool.Close()

	eventRepo := repository.NewEventRepository(pool, logger)
	registrationRepo := repository.NewRegistrationRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	emailLogRepo := repository.NewEmailLogRepository(pool, logger)

	// Realtime is an optional collaborator: if Redis is unreachable the API
	// keeps working with a no-op publisher.
	var publisher realtime.Publisher = realtime.NopPublisher{}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, realtime publishing disabled", zap.Error(err))
	} else {
		publisher = realtime.NewRedisPublisher(rdb, logger)
		defer func() {
			_ = rdb.Close()
		}()
	}

	// Same for the email queue: without Kafka every notification goes out on
	// the immediate-send path.
	var producer kafka.Producer
	if !cfg.Kafka.Disabled {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Warn("Kafka unreachable, emails will be sent immediately", zap.Error(err))
			producer = nil
		} else {
			defer func() {
				_ = producer.Close()
			}()
		}
	}

	sender := email.NewSMTPSender(cfg.SMTP, emailLogRepo, logger)
	dispatcher := notifier.NewQueueDispatcher(producer, cfg.Kafka.EmailTopic, sender, logger)

	registrationService := service.NewRegistrationService(
		eventRepo, registrationRepo, userRepo, dispatcher, publisher, logger,
	)
	eventService := service.NewEventService(eventRepo, logger)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &transport.Handlers{
		Event:        handler.NewEventHandler(eventService, logger),
		Registration: handler.NewRegistrationHandler(registrationService, logger),
	}

	transport.RegisterRoutes(app, handlers, middleware.NewAuthMiddleware(cfg.Auth.JWTSecret))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	go func() {
		mux := nethttp.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		logger.Info("Metrics server listening", zap.String("port", cfg.Metrics.Port))

		if err := nethttp.ListenAndServe(cfg.Metrics.Port, mux); err != nil {
			logger.Warn("Metrics serving failed", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HTTP.Port))
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("Error shutting down HTTP app", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error shutting down telemetry", zap.Error(err))
	}
}
