package repository_test

import (
	"sync"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
)

func (s *RepositorySuite) TestCreateRegistration_SetsConfirmedStatus() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	reg := s.register(eventID, 7, 3, 2000)

	s.Require().NotZero(reg.ID)
	s.Require().Equal(domain.RegistrationStatusConfirmed, reg.Status)
	s.Require().EqualValues(6000, reg.TotalPrice)
}

func (s *RepositorySuite) TestCreateRegistration_RejectsSecondActive() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	s.register(eventID, 7, 1, 2000)

	dup := &domain.Registration{
		EventID:        eventID,
		UserID:         7,
		TicketQuantity: 2,
		TotalPrice:     4000,
		PaymentStatus:  "pending",
	}
	err := s.Ledger.Create(s.Ctx, dup)
	s.Require().ErrorIs(err, repository.ErrDuplicateRegistration)
}

func (s *RepositorySuite) TestCreateRegistration_AllowsReRegistrationAfterCancel() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	reg := s.register(eventID, 7, 1, 2000)

	_, err := s.Ledger.Cancel(s.Ctx, reg.ID)
	s.Require().NoError(err)

	again := s.register(eventID, 7, 2, 2000)
	s.Require().NotEqual(reg.ID, again.ID)

	// Both rows survive; the cancelled one is history.
	regs, err := s.Ledger.ListByUser(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(regs, 2)
}

func (s *RepositorySuite) TestCancel_IsOneWay() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	reg := s.register(eventID, 7, 2, 2000)

	cancelled, err := s.Ledger.Cancel(s.Ctx, reg.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.RegistrationStatusCancelled, cancelled.Status)

	_, err = s.Ledger.Cancel(s.Ctx, reg.ID)
	s.Require().ErrorIs(err, repository.ErrAlreadyCancelled)
}

func (s *RepositorySuite) TestCancel_NotFound() {
	_, err := s.Ledger.Cancel(s.Ctx, 424242)
	s.Require().ErrorIs(err, repository.ErrRegistrationNotFound)
}

// Two racing cancellations of the same registration: exactly one wins, the
// other sees the already-cancelled guard.
func (s *RepositorySuite) TestCancel_ConcurrentSingleWinner() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	reg := s.register(eventID, 7, 1, 2000)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Ledger.Cancel(s.Ctx, reg.ID)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			s.Require().ErrorIs(err, repository.ErrAlreadyCancelled)
		}
	}
	s.Require().Equal(1, succeeded)
}

func (s *RepositorySuite) TestFindActiveForEvent_IgnoresCancelled() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "attendee@example.com")

	reg := s.register(eventID, 7, 1, 2000)

	found, err := s.Ledger.FindActiveForEvent(s.Ctx, eventID, 7)
	s.Require().NoError(err)
	s.Require().Equal(reg.ID, found.ID)

	_, err = s.Ledger.Cancel(s.Ctx, reg.ID)
	s.Require().NoError(err)

	_, err = s.Ledger.FindActiveForEvent(s.Ctx, eventID, 7)
	s.Require().ErrorIs(err, repository.ErrRegistrationNotFound)
}

func (s *RepositorySuite) TestListByEvent_ReturnsAllStatuses() {
	eventID := s.seedEvent(10, 2000)
	s.seedUser(7, "first@example.com")
	s.seedUser(8, "second@example.com")

	reg := s.register(eventID, 7, 1, 2000)
	s.register(eventID, 8, 2, 2000)

	_, err := s.Ledger.Cancel(s.Ctx, reg.ID)
	s.Require().NoError(err)

	regs, err := s.Ledger.ListByEvent(s.Ctx, eventID)
	s.Require().NoError(err)
	s.Require().Len(regs, 2)
}

func (s *RepositorySuite) TestEmailLog_RecordAndMark() {
	id, err := s.Emails.Record(s.Ctx, "attendee@example.com", "Registration Confirmed: Go Conference - EventHub", false)
	s.Require().NoError(err)
	s.Require().NotZero(id)

	s.Require().NoError(s.Emails.MarkSent(s.Ctx, id))

	var sent bool
	err = s.DbPool.QueryRow(s.Ctx, `SELECT sent_at IS NOT NULL FROM email_log WHERE id = $1`, id).Scan(&sent)
	s.Require().NoError(err)
	s.Require().True(sent)

	failedID, err := s.Emails.Record(s.Ctx, "attendee@example.com", "New Registration", true)
	s.Require().NoError(err)
	s.Require().NoError(s.Emails.MarkFailed(s.Ctx, failedID, "connection refused"))

	var lastError string
	err = s.DbPool.QueryRow(s.Ctx, `SELECT last_error FROM email_log WHERE id = $1`, failedID).Scan(&lastError)
	s.Require().NoError(err)
	s.Require().Equal("connection refused", lastError)
}
