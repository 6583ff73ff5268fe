package domain

import "time"

type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// Registration is a user's claim on some quantity of an event's capacity.
// TotalPrice is fixed at creation time and never recomputed. The only legal
// transition is confirmed → cancelled; cancelled is terminal.
type Registration struct {
	ID             int64              `json:"id"`
	EventID        int64              `json:"eventId"`
	UserID         int64              `json:"userId"`
	TicketQuantity int32              `json:"ticketQuantity"`
	TotalPrice     int64              `json:"totalPrice"` // cents
	Status         RegistrationStatus `json:"status"`
	PaymentStatus  string             `json:"paymentStatus"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func (r *Registration) IsCancelled() bool {
	return r.Status == RegistrationStatusCancelled
}
