package service

import (
	"context"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EventService covers the slim event surface the registration engine needs:
// organizers create events as drafts, publish them, and cancel them.
// Capacity is fixed at creation; only Reserve/Release touch available_spots.
type EventService interface {
	CreateEvent(ctx context.Context, organizerID int64, input domain.CreateEventInput) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ChangeStatus(ctx context.Context, eventID, organizerID int64, status domain.EventStatus) (*domain.Event, error)
}

type eventService struct {
	events repository.EventRepository
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEventService(events repository.EventRepository, logger *zap.Logger) EventService {
	return &eventService{
		events: events,
		logger: logger,
		tracer: otel.Tracer("event_service"),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID int64, input domain.CreateEventInput) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.CreateEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("organizer_id", organizerID),
	)

	event := &domain.Event{
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		Category:    input.Category,
		OrganizerID: organizerID,
		Capacity:    input.Capacity,
		Price:       input.Price,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	applog.Info(
		ctx,
		s.logger,
		"Event created",
		zap.Int64("event_id", event.ID),
		zap.Int64("organizer_id", organizerID),
	)

	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.ListEvents")
	defer span.End()

	return s.events.ListPublished(ctx)
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.GetEvent")
	defer span.End()

	return s.events.FindByID(ctx, id)
}

// statusTransitions lists what an organizer may do. Blocking is an admin
// moderation action and does not go through this path.
var statusTransitions = map[domain.EventStatus][]domain.EventStatus{
	domain.EventStatusDraft:     {domain.EventStatusPublished},
	domain.EventStatusPublished: {domain.EventStatusCancelled},
}

func (s *eventService) ChangeStatus(ctx context.Context, eventID, organizerID int64, status domain.EventStatus) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "EventService.ChangeStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("status", string(status)),
	)

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != organizerID {
		return nil, ErrNotOwner
	}

	allowed := false
	for _, next := range statusTransitions[event.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}

	updated, err := s.events.UpdateStatus(ctx, eventID, status)
	if err != nil {
		return nil, err
	}

	applog.Info(
		ctx,
		s.logger,
		"Event status changed",
		zap.Int64("event_id", eventID),
		zap.String("from", string(event.Status)),
		zap.String("to", string(status)),
	)

	return updated, nil
}
