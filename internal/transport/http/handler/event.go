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

type ChangeEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=published cancelled"`
}

type EventHandler struct {
	service  service.EventService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewEventHandler(svc service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		service:  svc,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	var input domain.CreateEventInput
	if err := c.BodyParser(&input); err != nil {
		h.logger.Warn("failed to parse event body", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "error parsing body"})
	}

	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	event, err := h.service.CreateEvent(c.UserContext(), userID, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *EventHandler) List(c *fiber.Ctx) error {
	events, err := h.service.ListEvents(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	if events == nil {
		events = []domain.Event{}
	}

	return c.JSON(events)
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	eventID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid event id"})
	}

	event, svcErr := h.service.GetEvent(c.UserContext(), eventID)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return c.JSON(event)
}

func (h *EventHandler) ChangeStatus(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	eventID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid event id"})
	}

	var input ChangeEventStatusRequest
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "error parsing body"})
	}

	if err := h.validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	event, svcErr := h.service.ChangeStatus(c.UserContext(), eventID, userID, domain.EventStatus(input.Status))
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return c.JSON(event)
}
