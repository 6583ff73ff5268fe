package repository_test

import (
	"errors"
	"sync"
	"time"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
)

func (s *RepositorySuite) TestReserve_DecrementsSpots() {
	eventID := s.seedEvent(10, 2000)

	event, err := s.Events.Reserve(s.Ctx, eventID, 3)
	s.Require().NoError(err)
	s.Require().EqualValues(7, event.AvailableSpots)
}

func (s *RepositorySuite) TestReserve_EventNotFound() {
	_, err := s.Events.Reserve(s.Ctx, 424242, 1)
	s.Require().ErrorIs(err, repository.ErrEventNotFound)
}

func (s *RepositorySuite) TestReserve_RefusesDraftEvent() {
	eventID := s.seedEvent(10, 2000)

	_, err := s.Events.UpdateStatus(s.Ctx, eventID, domain.EventStatusCancelled)
	s.Require().NoError(err)

	_, err = s.Events.Reserve(s.Ctx, eventID, 1)
	s.Require().ErrorIs(err, repository.ErrEventNotAvailable)
}

func (s *RepositorySuite) TestReserve_RefusesWhenNotEnoughSpots() {
	eventID := s.seedEvent(5, 2000)

	_, err := s.Events.Reserve(s.Ctx, eventID, 6)
	s.Require().ErrorIs(err, repository.ErrInsufficientCapacity)

	// A refused reservation must not change the counter.
	event, err := s.Events.FindByID(s.Ctx, eventID)
	s.Require().NoError(err)
	s.Require().EqualValues(5, event.AvailableSpots)
}

// Ten concurrent single-spot reservations against five spots: exactly five
// may win and the counter must land on zero.
func (s *RepositorySuite) TestReserve_NoOversellUnderConcurrency() {
	eventID := s.seedEvent(5, 2000)

	const attempts = 10

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Events.Reserve(s.Ctx, eventID, 1)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded, refused := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrInsufficientCapacity):
			refused++
		default:
			s.Require().NoError(err)
		}
	}

	s.Require().Equal(5, succeeded)
	s.Require().Equal(5, refused)

	event, err := s.Events.FindByID(s.Ctx, eventID)
	s.Require().NoError(err)
	s.Require().EqualValues(0, event.AvailableSpots)
}

func (s *RepositorySuite) TestRelease_RestoresSpots() {
	eventID := s.seedEvent(10, 2000)

	_, err := s.Events.Reserve(s.Ctx, eventID, 4)
	s.Require().NoError(err)

	event, err := s.Events.Release(s.Ctx, eventID, 4)
	s.Require().NoError(err)
	s.Require().EqualValues(10, event.AvailableSpots)
}

func (s *RepositorySuite) TestRelease_ClampsAtCapacity() {
	eventID := s.seedEvent(10, 2000)

	event, err := s.Events.Release(s.Ctx, eventID, 3)
	s.Require().NoError(err)
	s.Require().EqualValues(10, event.AvailableSpots)
}

func (s *RepositorySuite) TestRelease_WorksOnCancelledEvent() {
	eventID := s.seedEvent(10, 2000)

	_, err := s.Events.Reserve(s.Ctx, eventID, 2)
	s.Require().NoError(err)

	_, err = s.Events.UpdateStatus(s.Ctx, eventID, domain.EventStatusCancelled)
	s.Require().NoError(err)

	event, err := s.Events.Release(s.Ctx, eventID, 2)
	s.Require().NoError(err)
	s.Require().EqualValues(10, event.AvailableSpots)
}

func (s *RepositorySuite) TestCreate_StartsWithFullCapacity() {
	eventID := s.seedEvent(25, 1000)

	event, err := s.Events.FindByID(s.Ctx, eventID)
	s.Require().NoError(err)
	s.Require().EqualValues(25, event.Capacity)
	s.Require().EqualValues(25, event.AvailableSpots)
}

func (s *RepositorySuite) TestListPublished_SkipsDrafts() {
	s.seedEvent(10, 2000)

	draft := &domain.Event{
		Title:       "Unannounced",
		Description: "d",
		Date:        time.Now().Add(24 * time.Hour),
		Location:    "l",
		Category:    "c",
		OrganizerID: 1,
		Capacity:    5,
	}
	s.Require().NoError(s.Events.Create(s.Ctx, draft))

	events, err := s.Events.ListPublished(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Require().Equal("Go Conference", events[0].Title)
}
