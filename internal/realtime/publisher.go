// Package realtime broadcasts registration activity to live subscribers
// through Redis pub/sub channels. The websocket gateway subscribes
// elsewhere; this side only publishes.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AdminTopic is the moderation room every admin dashboard session joins.
const AdminTopic = "admins"

// EventTopic names the per-event room channel.
func EventTopic(eventID int64) string {
	return fmt.Sprintf("event:%d", eventID)
}

// Publisher is a best-effort broadcast capability. Implementations log their
// own failures; callers treat a returned error as diagnostic only.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type redisPublisher struct {
	client *redis.Client
	logger *zap.Logger
	tracer trace.Tracer
}

func NewRedisPublisher(client *redis.Client, logger *zap.Logger) Publisher {
	return &redisPublisher{
		client: client,
		logger: logger,
		tracer: otel.Tracer("realtime_publisher"),
	}
}

func (p *redisPublisher) Publish(ctx context.Context, topic, event string, payload any) error {
	ctx, span := p.tracer.Start(ctx, "RealtimePublisher.Publish")
	defer span.End()

	span.SetAttributes(
		attribute.String("topic", topic),
		attribute.String("event", event),
	)

	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal realtime payload: %w", err)
	}

	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		span.RecordError(err)

		applog.Warn(
			ctx,
			p.logger,
			"Failed to publish realtime event",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err),
		)

		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// NopPublisher is injected when the realtime transport is not configured, so
// callers never have to branch on its availability.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
