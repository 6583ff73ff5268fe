package service

import (
	"context"
	"testing"
	"time"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEventFixture() (*memEventRepo, EventService) {
	repo := &memEventRepo{events: map[int64]*domain.Event{}}
	return repo, NewEventService(repo, zap.NewNop())
}

func TestCreateEvent_StartsAsDraftWithFullCapacity(t *testing.T) {
	_, svc := newEventFixture()

	event, err := svc.CreateEvent(context.Background(), testOrganizerID, domain.CreateEventInput{
		Title:       "Go Meetup",
		Description: "Monthly meetup",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Main hall",
		Category:    "tech",
		Capacity:    25,
		Price:       1500,
	})
	require.NoError(t, err)

	require.Equal(t, domain.EventStatusDraft, event.Status)
	require.EqualValues(t, 25, event.AvailableSpots)
}

func TestChangeStatus_DraftToPublished(t *testing.T) {
	repo, svc := newEventFixture()
	event, err := svc.CreateEvent(context.Background(), testOrganizerID, domain.CreateEventInput{
		Title: "Go Meetup", Description: "d", Date: time.Now(), Location: "l", Category: "c", Capacity: 5,
	})
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(context.Background(), event.ID, testOrganizerID, domain.EventStatusPublished)
	require.NoError(t, err)
	require.Equal(t, domain.EventStatusPublished, updated.Status)
	require.Equal(t, domain.EventStatusPublished, repo.events[event.ID].Status)
}

func TestChangeStatus_RejectsDraftToCancelled(t *testing.T) {
	_, svc := newEventFixture()
	event, err := svc.CreateEvent(context.Background(), testOrganizerID, domain.CreateEventInput{
		Title: "Go Meetup", Description: "d", Date: time.Now(), Location: "l", Category: "c", Capacity: 5,
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), event.ID, testOrganizerID, domain.EventStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChangeStatus_RequiresOwner(t *testing.T) {
	_, svc := newEventFixture()
	event, err := svc.CreateEvent(context.Background(), testOrganizerID, domain.CreateEventInput{
		Title: "Go Meetup", Description: "d", Date: time.Now(), Location: "l", Category: "c", Capacity: 5,
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), event.ID, testOrganizerID+1, domain.EventStatusPublished)
	require.ErrorIs(t, err, ErrNotOwner)
}
