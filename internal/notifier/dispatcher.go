package notifier

import (
	"context"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/kafka"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type queueDispatcher struct {
	producer kafka.Producer // nil when the queue is disabled
	topic    string
	sender   Sender
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewQueueDispatcher builds a Dispatcher that enqueues messages onto the
// email topic for out-of-process delivery. With a nil producer, or when a
// produce fails, the message is sent immediately instead.
func NewQueueDispatcher(producer kafka.Producer, topic string, sender Sender, logger *zap.Logger) Dispatcher {
	return &queueDispatcher{
		producer: producer,
		topic:    topic,
		sender:   sender,
		logger:   logger,
		tracer:   otel.Tracer("notifier_dispatcher"),
	}
}

func (d *queueDispatcher) Dispatch(ctx context.Context, msg Message) error {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("recipient", msg.To),
		attribute.String("subject", msg.Subject),
	)

	if d.producer == nil {
		return d.sender.Send(ctx, msg)
	}

	job := Job{
		ID:      uuid.NewString(),
		Message: msg,
	}

	if err := d.producer.ProduceMessage(ctx, d.topic, job); err != nil {
		span.RecordError(err)

		applog.Warn(
			ctx,
			d.logger,
			"Failed to enqueue email job, falling back to immediate send",
			zap.String("job_id", job.ID),
			zap.String("recipient", msg.To),
			zap.Error(err),
		)

		if sendErr := d.sender.Send(ctx, msg); sendErr != nil {
			return fmt.Errorf("enqueue failed and immediate send failed: %w", sendErr)
		}
	}

	return nil
}
