package http

import (
	"github.com/MattMattw/Eventhub---your-life-your-event/internal/transport/http/handler"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Event        *handler.EventHandler
	Registration *handler.RegistrationHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, auth fiber.Handler) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	events := app.Group("/events")
	events.Get("", h.Event.List)
	events.Get("/:id", h.Event.Get)
	events.Post("", auth, h.Event.Create)
	events.Patch("/:id/status", auth, h.Event.ChangeStatus)

	registrations := app.Group("/registrations", auth)
	registrations.Post("", h.Registration.Create)
	registrations.Get("/my-registrations", h.Registration.MyRegistrations)
	registrations.Get("/event/:eventId", h.Registration.EventRegistrations)
	registrations.Patch("/:id/cancel", h.Registration.Cancel)
}
