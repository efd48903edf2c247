// handlers/store_routes.go
package handlers

import (
	"casa-rewards-system/middleware"
	"casa-rewards-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupStoreRoutes(app *fiber.App, storeService *services.StoreService) {
	store := app.Group("/store")

	store.Get("/items", storeService.ListPublishedItems)
	store.Get("/items/:slug", storeService.GetItemBySlug)

	admin := app.Group("/admin/store", middleware.AdminContextMiddleware())
	admin.Post("/items", storeService.CreateItem)
}
