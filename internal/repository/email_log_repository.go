package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EmailLogRepository is the delivery audit trail. Every attempt is recorded
// before the transport is touched, so failed sends stay observable.
type EmailLogRepository interface {
	Record(ctx context.Context, recipient, subject string, queued bool) (int64, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

type emailLogRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEmailLogRepository(pool *pgxpool.Pool, logger *zap.Logger) EmailLogRepository {
	return &emailLogRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("email_log_repository"),
	}
}

func (r *emailLogRepo) Record(ctx context.Context, recipient, subject string, queued bool) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "EmailLogRepository.Record")
	defer span.End()

	span.SetAttributes(
		attribute.String("recipient", recipient),
		attribute.String("subject", subject),
		attribute.Bool("queued", queued),
	)

	query := `
		INSERT INTO email_log (recipient, subject, queued)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, recipient, subject, queued).Scan(&id); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to record email attempt: %w", err)
	}

	return id, nil
}

func (r *emailLogRepo) MarkSent(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "EmailLogRepository.MarkSent")
	defer span.End()

	query := `
		UPDATE email_log
		SET sent_at = NOW(), last_error = NULL
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *emailLogRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "EmailLogRepository.MarkFailed")
	defer span.End()

	query := `
		UPDATE email_log
		SET last_error = $2
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, errMsg); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}
