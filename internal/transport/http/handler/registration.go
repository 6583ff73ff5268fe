package handler

import (
	"strconv"

	"github.com/MattMattw/Eventhub---your-life-your-event/internal/domain"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/middleware"
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/service"
	"github.com/MattMattw/Eventhub---your-life-your-event/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateRegistrationRequest struct {
	EventID        int64 `json:"eventId" validate:"required,gt=0"`
	TicketQuantity int32 `json:"ticketQuantity" validate:"required,gte=1"`
}

type RegistrationHandler struct {
	service  service.RegistrationService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewRegistrationHandler(svc service.RegistrationService, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service:  svc,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *RegistrationHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	var input CreateRegistrationRequest
	if err := c.BodyParser(&input); err != nil {
		h.logger.Warn("failed to parse registration body", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "error parsing body"})
	}

	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	reg, err := h.service.Register(c.UserContext(), input.EventID, userID, input.TicketQuantity)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (h *RegistrationHandler) MyRegistrations(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	regs, err := h.service.MyRegistrations(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	if regs == nil {
		regs = []domain.Registration{}
	}

	return c.JSON(regs)
}

func (h *RegistrationHandler) EventRegistrations(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	eventID, err := strconv.ParseInt(c.Params("eventId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid event id"})
	}

	regs, svcErr := h.service.EventRegistrations(c.UserContext(), eventID, userID)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return c.JSON(regs)
}

func (h *RegistrationHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	registrationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid registration id"})
	}

	if _, err := h.service.Cancel(c.UserContext(), registrationID, userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Registration cancelled"})
}
