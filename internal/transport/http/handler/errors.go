package handler

import (
	"errors"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/repository"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/service"
	"github.com/gofiber/fiber/v2"
)

// statusFromError maps domain errors onto HTTP status codes. Anything
// unrecognized is a 500 and its detail stays out of the response body.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrRegistrationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, repository.ErrEventNotAvailable),
		errors.Is(err, repository.ErrInsufficientCapacity),
		errors.Is(err, repository.ErrDuplicateRegistration),
		errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidTransition):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Server error"
	}

	return c.Status(status).JSON(fiber.Map{"message": message})
}
