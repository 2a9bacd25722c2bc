// handlers/live_routes.go
package handlers

import (
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"match-integrity-system/middleware"
	"match-integrity-system/models"
	"match-integrity-system/services"
)

func SetupLiveRoutes(app *fiber.App, liveService *services.LiveService, authClient middleware.TokenValidator) {
	// Browsers' EventSource cannot send headers, so the stream authenticates by query token
	app.Get("/live/matches/:id/events", middleware.SSEAuthMiddleware(authClient), liveService.StreamMatchEventsSSE)

	secured := app.Group("/live", middleware.UserContextMiddleware())

	secured.Get("/matches", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"running": liveService.Running()})
	})

	secured.Post("/matches", func(c *fiber.Ctx) error {
		var req services.StartLiveRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": err.Error()})
		}
		id, err := liveService.Start(req, middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"matchId": id})
	})

	secured.Post("/matches/:id/inputs", func(c *fiber.Ctx) error {
		inputs, err := models.DecodeInputs(c.Body())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid inputs", "details": err.Error()})
		}
		if err := liveService.Submit(c.Params("id"), inputs); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": len(inputs)})
	})

	secured.Post("/matches/:id/abort", func(c *fiber.Ctx) error {
		if err := liveService.Abort(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"aborted": c.Params("id")})
	})
}
