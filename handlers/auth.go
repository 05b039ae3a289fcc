package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lewa-type-backend/middleware"
	"lewa-type-backend/services"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	app.Post("/auth/register", authService.Register)
	app.Post("/auth/login", authService.Login)
	app.Post("/auth/logout",
		middleware.RequireAuth(authService.Secret), middleware.RequireCSRF(),
		authService.Logout)
}
