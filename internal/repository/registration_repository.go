package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistrationRepository is the registration ledger. Rows are never deleted
// here; cancellation is a one-way status transition enforced in the UPDATE.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	FindByID(ctx context.Context, id int64) (*domain.Registration, error)
	FindActiveForEvent(ctx context.Context, eventID, userID int64) (*domain.Registration, error)
	Cancel(ctx context.Context, id int64) (*domain.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Registration, error)
}

const registrationColumns = `id, event_id, user_id, ticket_quantity, total_price,
		status, payment_status, created_at, updated_at`

type registrationRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewRegistrationRepository(pool *pgxpool.Pool, logger *zap.Logger) RegistrationRepository {
	return &registrationRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("registration_repository"),
	}
}

func scanRegistration(row pgx.Row, reg *domain.Registration) error {
	return row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.TicketQuantity,
		&reg.TotalPrice,
		&reg.Status,
		&reg.PaymentStatus,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
}

func (r *registrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", reg.EventID),
		attribute.Int64("user_id", reg.UserID),
		attribute.Int("ticket_quantity", int(reg.TicketQuantity)),
	)

	query := `
		INSERT INTO registrations (event_id, user_id, ticket_quantity, total_price, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		reg.EventID,
		reg.UserID,
		reg.TicketQuantity,
		reg.TotalPrice,
		string(domain.RegistrationStatusConfirmed),
		reg.PaymentStatus,
	).Scan(
		&reg.ID,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			applog.Warn(
				ctx,
				r.logger,
				"Active registration already exists",
				zap.Int64("event_id", reg.EventID),
				zap.Int64("user_id", reg.UserID),
			)

			return ErrDuplicateRegistration
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to insert registration",
			zap.Int64("event_id", reg.EventID),
			zap.Int64("user_id", reg.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert registration: %w", err)
	}

	reg.Status = domain.RegistrationStatusConfirmed

	return nil
}

func (r *registrationRepo) FindByID(ctx context.Context, id int64) (*domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("registration_id", id),
	)

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	var reg domain.Registration
	if err := scanRegistration(r.pool.QueryRow(ctx, query, id), &reg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query registration: %w", err)
	}

	return &reg, nil
}

func (r *registrationRepo) FindActiveForEvent(ctx context.Context, eventID, userID int64) (*domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.FindActiveForEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
	`

	var reg domain.Registration
	if err := scanRegistration(r.pool.QueryRow(ctx, query, eventID, userID), &reg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query active registration: %w", err)
	}

	return &reg, nil
}

// Cancel flips status to cancelled. The status guard sits in the WHERE clause
// so two racing cancellations cannot both succeed.
func (r *registrationRepo) Cancel(ctx context.Context, id int64) (*domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.Cancel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("registration_id", id),
	)

	query := `
		UPDATE registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING ` + registrationColumns

	var reg domain.Registration
	err := scanRegistration(r.pool.QueryRow(ctx, query, id), &reg)
	if err == nil {
		return &reg, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to cancel registration",
			zap.Int64("registration_id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	// Nothing matched: either the row is gone or it was already cancelled.
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}

	return nil, ErrAlreadyCancelled
}

func (r *registrationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.ListByUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, span, query, userID)
}

func (r *registrationRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepository.ListByEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, span, query, eventID)
}

func (r *registrationRepo) list(ctx context.Context, span trace.Span, query string, arg int64) ([]domain.Registration, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to query registrations",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var result []domain.Registration
	for rows.Next() {
		var reg domain.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}

		result = append(result, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
