package domain

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusBlocked   EventStatus = "blocked"
)

// Event is a schedulable activity with finite capacity. AvailableSpots is
// mutated only through the repository's atomic Reserve/Release operations.
type Event struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Date           time.Time   `json:"date"`
	Location       string      `json:"location"`
	Category       string      `json:"category"`
	OrganizerID    int64       `json:"organizerId"`
	Capacity       int32       `json:"capacity"`
	Price          int64       `json:"price"` // cents
	Status         EventStatus `json:"status"`
	AvailableSpots int32       `json:"availableSpots"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

type CreateEventInput struct {
	Title       string    `json:"title" validate:"required,min=3"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Capacity    int32     `json:"capacity" validate:"required,gte=1"`
	Price       int64     `json:"price" validate:"gte=0"`
}
