package domain

import "time"

// User is a read-only projection of the identity service's account record.
// This service never creates or mutates users; it only looks them up to
// address notifications.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
