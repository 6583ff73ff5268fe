package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier/email"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/config"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/db"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/kafka"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const consumerGroupID = "email-worker"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "eventhub-emailworker")
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

	sender := email.NewSMTPSender(cfg.SMTP, repository.NewEmailLogRepository(pool, logger), logger)

	group := kafka.NewConsumerGroup(
		cfg.Kafka.Brokers,
		consumerGroupID,
		[]string{cfg.Kafka.EmailTopic},
		handleEmailJob(sender, logger),
		logger,
	)

	logger.Info("Email worker started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.EmailTopic),
	)

	if err := group.Run(ctx); err != nil {
		log.Fatalf("error running consumer group: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error shutting down telemetry", zap.Error(err))
	}
}

func handleEmailJob(sender notifier.Sender, logger *zap.Logger) kafka.HandlerFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		var job notifier.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// A malformed record would never parse on retry either, so mark
			// it consumed instead of wedging the partition.
			applog.Error(ctx, logger, "Dropping malformed email job",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return nil
		}

		if err := sender.Send(ctx, job.Message); err != nil {
			return fmt.Errorf("error sending email job %s: %w", job.ID, err)
		}

		applog.Info(ctx, logger, "Email job processed",
			zap.String("jobId", job.ID),
			zap.String("to", job.To),
		)
		return nil
	}
}
