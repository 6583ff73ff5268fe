package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/notifier"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/realtime"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/applog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistrationService orchestrates ticket registration and cancellation
// against an event's finite capacity. The critical path (capacity reservation
// plus ledger write) either fully completes or is compensated; realtime and
// email side effects run after the commit point and never affect the result.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID int64, quantity int32) (*domain.Registration, error)
	Cancel(ctx context.Context, registrationID, userID int64) (*domain.Registration, error)
	MyRegistrations(ctx context.Context, userID int64) ([]domain.Registration, error)
	EventRegistrations(ctx context.Context, eventID, requestingUserID int64) ([]domain.Registration, error)
}

type registrationService struct {
	events     repository.EventRepository
	ledger     repository.RegistrationRepository
	users      repository.UserRepository
	dispatcher notifier.Dispatcher
	publisher  realtime.Publisher
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewRegistrationService(
	events repository.EventRepository,
	ledger repository.RegistrationRepository,
	users repository.UserRepository,
	dispatcher notifier.Dispatcher,
	publisher realtime.Publisher,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		events:     events,
		ledger:     ledger,
		users:      users,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		tracer:     otel.Tracer("registration_service"),
	}
}

func (s *registrationService) Register(ctx context.Context, eventID, userID int64, quantity int32) (*domain.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.Register")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("user_id", userID),
		attribute.Int("quantity", int(quantity)),
	)

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !event.IsPublished() {
		return nil, repository.ErrEventNotAvailable
	}

	if _, err := s.ledger.FindActiveForEvent(ctx, eventID, userID); err == nil {
		return nil, repository.ErrDuplicateRegistration
	} else if !errors.Is(err, repository.ErrRegistrationNotFound) {
		return nil, err
	}

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	totalPrice := event.Price * int64(quantity)

	reserved, err := s.events.Reserve(ctx, eventID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCapacity) {
			return nil, s.capacityError(ctx, eventID)
		}

		return nil, err
	}

	reg := &domain.Registration{
		EventID:        eventID,
		UserID:         userID,
		TicketQuantity: quantity,
		TotalPrice:     totalPrice,
		PaymentStatus:  "pending",
	}

	if err := s.ledger.Create(ctx, reg); err != nil {
		// The spots are reserved but no ticket exists. Give them back
		// before reporting the failure.
		s.compensateReservation(ctx, eventID, quantity)

		if errors.Is(err, repository.ErrDuplicateRegistration) {
			return nil, err
		}

		applog.Error(
			ctx,
			s.logger,
			"Ledger write failed after capacity was reserved",
			zap.Int64("event_id", eventID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	applog.Info(
		ctx,
		s.logger,
		"Registration confirmed",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.Int32("available_spots", reserved.AvailableSpots),
	)

	go s.afterRegister(context.WithoutCancel(ctx), reserved, reg)

	return reg, nil
}

func (s *registrationService) Cancel(ctx context.Context, registrationID, userID int64) (*domain.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.Cancel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("registration_id", registrationID),
		attribute.Int64("user_id", userID),
	)

	reg, err := s.ledger.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if reg.UserID != userID {
		return nil, ErrNotOwner
	}

	if reg.IsCancelled() {
		return nil, repository.ErrAlreadyCancelled
	}

	cancelled, err := s.ledger.Cancel(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	// The ledger write above is the commit point. From here on nothing may
	// undo the cancellation; the release and the notifications are
	// best-effort.
	event, err := s.events.Release(ctx, cancelled.EventID, cancelled.TicketQuantity)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			applog.Warn(
				ctx,
				s.logger,
				"Event gone while releasing spots, nothing to release",
				zap.Int64("event_id", cancelled.EventID),
				zap.Int64("registration_id", registrationID),
			)
		} else {
			applog.Error(
				ctx,
				s.logger,
				"Failed to release spots after cancellation, counter needs manual reconciliation",
				zap.Int64("event_id", cancelled.EventID),
				zap.Int32("quantity", cancelled.TicketQuantity),
				zap.Error(err),
			)
		}
	}

	applog.Info(
		ctx,
		s.logger,
		"Registration cancelled",
		zap.Int64("registration_id", registrationID),
		zap.Int64("event_id", cancelled.EventID),
		zap.Int64("user_id", userID),
	)

	go s.afterCancel(context.WithoutCancel(ctx), event, cancelled)

	return cancelled, nil
}

func (s *registrationService) MyRegistrations(ctx context.Context, userID int64) ([]domain.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.MyRegistrations")
	defer span.End()

	return s.ledger.ListByUser(ctx, userID)
}

func (s *registrationService) EventRegistrations(ctx context.Context, eventID, requestingUserID int64) ([]domain.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.EventRegistrations")
	defer span.End()

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != requestingUserID {
		return nil, ErrNotOwner
	}

	return s.ledger.ListByEvent(ctx, eventID)
}

// capacityError re-reads the counter so the refusal names the remaining spot
// count. The count is advisory; by the time the caller sees it another
// request may have taken more spots.
func (s *registrationService) capacityError(ctx context.Context, eventID int64) error {
	remaining := int32(0)
	if event, err := s.events.FindByID(ctx, eventID); err == nil {
		remaining = event.AvailableSpots
	}

	return &CapacityError{Remaining: remaining}
}

func (s *registrationService) compensateReservation(ctx context.Context, eventID int64, quantity int32) {
	if _, err := s.events.Release(ctx, eventID, quantity); err != nil {
		applog.Error(
			ctx,
			s.logger,
			"CRITICAL: failed to roll back reservation, spots leaked until manual reconciliation",
			zap.Int64("event_id", eventID),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)
	}
}

// afterRegister runs the post-commit side effects. Each one is independent:
// a failure is logged and the rest still run.
func (s *registrationService) afterRegister(ctx context.Context, event *domain.Event, reg *domain.Registration) {
	payload := map[string]any{
		"registrationId": reg.ID,
		"eventId":        event.ID,
		"userId":         reg.UserID,
		"ticketQuantity": reg.TicketQuantity,
		"availableSpots": event.AvailableSpots,
	}

	s.publish(ctx, realtime.EventTopic(event.ID), "registration", payload)
	s.publish(ctx, realtime.AdminTopic, "registration", payload)

	registrant, organizer := s.lookupParties(ctx, reg.UserID, event.OrganizerID)

	if registrant != nil {
		s.dispatch(ctx, notifier.Message{
			To:      registrant.Email,
			Subject: fmt.Sprintf("Registration Confirmed: %s - EventHub", event.Title),
			HTML: fmt.Sprintf(
				`<h2>You're going to %s!</h2>
				<p><strong>Tickets:</strong> %d</p>
				<p><strong>Total:</strong> %s</p>
				<p>See you there.</p>`,
				event.Title, reg.TicketQuantity, formatPrice(reg.TotalPrice),
			),
		})
	}

	if organizer != nil {
		s.dispatch(ctx, notifier.Message{
			To:      organizer.Email,
			Subject: fmt.Sprintf("New Registration: %s - EventHub", event.Title),
			HTML: fmt.Sprintf(
				`<h2>New registration for %s</h2>
				<p><strong>Tickets:</strong> %d</p>
				<p><strong>Spots remaining:</strong> %d</p>`,
				event.Title, reg.TicketQuantity, event.AvailableSpots,
			),
		})
	}
}

func (s *registrationService) afterCancel(ctx context.Context, event *domain.Event, reg *domain.Registration) {
	payload := map[string]any{
		"registrationId": reg.ID,
		"eventId":        reg.EventID,
		"userId":         reg.UserID,
		"ticketQuantity": reg.TicketQuantity,
	}

	title := "your event"
	var organizerID int64
	if event != nil {
		payload["availableSpots"] = event.AvailableSpots
		title = event.Title
		organizerID = event.OrganizerID
	}

	s.publish(ctx, realtime.EventTopic(reg.EventID), "registrationCancelled", payload)
	s.publish(ctx, realtime.AdminTopic, "registrationCancelled", payload)

	registrant, organizer := s.lookupParties(ctx, reg.UserID, organizerID)

	if registrant != nil {
		s.dispatch(ctx, notifier.Message{
			To:      registrant.Email,
			Subject: fmt.Sprintf("Registration Cancelled: %s - EventHub", title),
			HTML: fmt.Sprintf(
				`<h2>Your registration for %s was cancelled</h2>
				<p><strong>Tickets released:</strong> %d</p>`,
				title, reg.TicketQuantity,
			),
		})
	}

	if organizer != nil {
		s.dispatch(ctx, notifier.Message{
			To:      organizer.Email,
			Subject: fmt.Sprintf("Registration Cancelled: %s - EventHub", title),
			HTML: fmt.Sprintf(
				`<h2>A registration for %s was cancelled</h2>
				<p><strong>Tickets released:</strong> %d</p>`,
				title, reg.TicketQuantity,
			),
		})
	}
}

func (s *registrationService) publish(ctx context.Context, topic, event string, payload any) {
	if err := s.publisher.Publish(ctx, topic, event, payload); err != nil {
		applog.Warn(
			ctx,
			s.logger,
			"Realtime publish failed",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

func (s *registrationService) dispatch(ctx context.Context, msg notifier.Message) {
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		applog.Warn(
			ctx,
			s.logger,
			"Notification dispatch failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

func (s *registrationService) lookupParties(ctx context.Context, registrantID, organizerID int64) (*domain.User, *domain.User) {
	var registrant, organizer *domain.User

	if u, err := s.users.FindByID(ctx, registrantID); err == nil {
		registrant = u
	} else {
		applog.Warn(ctx, s.logger, "Could not resolve registrant for notification",
			zap.Int64("user_id", registrantID), zap.Error(err))
	}

	if organizerID != 0 {
		if u, err := s.users.FindByID(ctx, organizerID); err == nil {
			organizer = u
		} else {
			applog.Warn(ctx, s.logger, "Could not resolve organizer for notification",
				zap.Int64("user_id", organizerID), zap.Error(err))
		}
	}

	return registrant, organizer
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
