// handlers/paloma_routes.go
package handlers

import (
	"errors"

	"casa-rewards-system/middleware"
	"casa-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var vErr *services.ValidationError
	var nfErr *services.NotFoundError
	var depErr *services.DependencyError
	switch {
	case errors.As(err, &vErr), errors.Is(err, services.ErrInsufficientBalance):
		return fiber.StatusBadRequest
	case errors.As(err, &nfErr):
		return fiber.StatusNotFound
	case errors.As(err, &depErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func SetupPalomaRoutes(app *fiber.App, balanceService *services.BalanceService, expirationService *services.ExpirationService) {
	secured := app.Group("/palomas", middleware.UserContextMiddleware())

	secured.Post("/send", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := balanceService.SendPalomas(c.Context(), userID, req.Amount)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})

	secured.Post("/cashout", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount       int64  `json:"amount"`
			PaymentEmail string `json:"payment_email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		result, err := balanceService.RequestCashout(c.Context(), userID, req.Amount, req.PaymentEmail)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})

	secured.Get("/forecast", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		forecast, err := expirationService.Forecast(c.Context(), userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(forecast)
	})

	secured.Get("/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit := c.QueryInt("limit", 50)

		events, err := balanceService.Store.ListLedgerEvents(c.Context(), userID, limit)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to load history"})
		}
		return c.JSON(fiber.Map{"events": events})
	})

	admin := app.Group("/admin", middleware.AdminContextMiddleware())

	// Manual sweep trigger. The daily job runs the same code path; the
	// sweep's advisory lock serializes the two.
	admin.Post("/expiration/sweep", func(c *fiber.Ctx) error {
		report, err := expirationService.RunSweep(c.Context())
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.JSON(report)
	})

	admin.Post("/palomas/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
			Source string `json:"source"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		txn, err := balanceService.GrantPalomas(c.Context(), req.UserID, req.Amount, req.Source)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	})
}
