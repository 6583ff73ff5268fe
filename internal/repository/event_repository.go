package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EventRepository is the event capacity store. Reserve and Release are the
// only ways available_spots changes; both are single conditional UPDATE
// statements so concurrent callers serialize at the database row.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, id int64) (*domain.Event, error)
	ListPublished(ctx context.Context) ([]domain.Event, error)
	UpdateStatus(ctx context.Context, id int64, status domain.EventStatus) (*domain.Event, error)
	Reserve(ctx context.Context, id int64, quantity int32) (*domain.Event, error)
	Release(ctx context.Context, id int64, quantity int32) (*domain.Event, error)
}

const eventColumns = `id, title, description, date, location, category, organizer_id,
		capacity, price, status, available_spots, created_at, updated_at`

type eventRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEventRepository(pool *pgxpool.Pool, logger *zap.Logger) EventRepository {
	return &eventRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("event_repository"),
	}
}

func scanEvent(row pgx.Row, e *domain.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.Category,
		&e.OrganizerID,
		&e.Capacity,
		&e.Price,
		&e.Status,
		&e.AvailableSpots,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *eventRepo) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("organizer_id", event.OrganizerID),
		attribute.Int("capacity", int(event.Capacity)),
	)

	query := `
		INSERT INTO events (title, description, date, location, category,
			organizer_id, capacity, price, status, available_spots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $7)
		RETURNING id, status, available_spots, created_at, updated_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		event.Category,
		event.OrganizerID,
		event.Capacity,
		event.Price,
		string(domain.EventStatusDraft),
	).Scan(
		&event.ID,
		&event.Status,
		&event.AvailableSpots,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to insert event",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

func (r *eventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", id),
	)

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var e domain.Event
	if err := scanEvent(r.pool.QueryRow(ctx, query, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to query event",
			zap.Int64("event_id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	return &e, nil
}

func (r *eventRepo) ListPublished(ctx context.Context) ([]domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.ListPublished")
	defer span.End()

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = 'published'
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to query published events",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := scanEvent(rows, &e); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *eventRepo) UpdateStatus(ctx context.Context, id int64, status domain.EventStatus) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", id),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE events
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns

	var e domain.Event
	if err := scanEvent(r.pool.QueryRow(ctx, query, id, string(status)), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	return &e, nil
}

// Reserve decrements available_spots by quantity. The status and spot checks
// live inside the UPDATE itself so a concurrent reservation can never observe
// the row between check and write.
func (r *eventRepo) Reserve(ctx context.Context, id int64, quantity int32) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Reserve")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", id),
		attribute.Int("quantity", int(quantity)),
	)

	query := `
		UPDATE events
		SET available_spots = available_spots - $2, updated_at = NOW()
		WHERE id = $1
			AND status = 'published'
			AND available_spots >= $2
		RETURNING ` + eventColumns

	var e domain.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, id, quantity), &e)
	if err == nil {
		return &e, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to reserve spots",
			zap.Int64("event_id", id),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to reserve spots for event %d: %w", id, err)
	}

	// The conditional update matched nothing: find out which precondition
	// failed so the caller gets a precise error.
	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}

	if !current.IsPublished() {
		return nil, ErrEventNotAvailable
	}

	return nil, ErrInsufficientCapacity
}

// Release gives quantity spots back, clamped at capacity so a double release
// can never push the counter past the event's size.
func (r *eventRepo) Release(ctx context.Context, id int64, quantity int32) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Release")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", id),
		attribute.Int("quantity", int(quantity)),
	)

	query := `
		UPDATE events
		SET available_spots = LEAST(capacity, available_spots + $2), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns

	var e domain.Event
	if err := scanEvent(r.pool.QueryRow(ctx, query, id, quantity), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		span.RecordError(err)

		applog.Error(
			ctx,
			r.logger,
			"Failed to release spots",
			zap.Int64("event_id", id),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to release spots for event %d: %w", id, err)
	}

	return &e, nil
}
