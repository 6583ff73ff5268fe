package repository

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotAvailable     = errors.New("event is not open for registration")
	ErrInsufficientCapacity  = errors.New("not enough available spots")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrAlreadyCancelled      = errors.New("registration already cancelled")
	ErrUserNotFound          = errors.New("user not found")
)
