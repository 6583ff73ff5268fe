package service

import (
	"errors"
	"fmt"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
)

var (
	ErrNotOwner          = errors.New("not authorized")
	ErrInvalidQuantity   = errors.New("ticket quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid event status transition")
)

// CapacityError reports how many spots were left when a reservation was
// refused. It matches repository.ErrInsufficientCapacity under errors.Is.
type CapacityError struct {
	Remaining int32
}

func (e *CapacityError) Error() string {
	if e.Remaining == 1 {
		return "only 1 spot available for this event"
	}
	return fmt.Sprintf("only %d spots available for this event", e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == repository.ErrInsufficientCapacity
}
