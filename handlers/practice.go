package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lewa-type-backend/middleware"
	"lewa-type-backend/services"
)

func SetupPracticeRoutes(
	app *fiber.App,
	secret []byte,
	practiceService *services.PracticeService,
	scoreService *services.ScoreService,
) {
	auth := middleware.RequireAuth(secret)
	csrf := middleware.RequireCSRF()

	app.Get("/api/languages", services.ListLanguages)
	app.Get("/api/practice/:lang/texts", practiceService.ListTexts)
	app.Get("/api/leaderboard", scoreService.GetLeaderboard)

	app.Get("/api/scores", auth, scoreService.GetOwnScores)
	app.Post("/api/scores", auth, csrf, scoreService.SubmitPracticeScore)
	app.Post("/api/practice/:lang/texts", auth, csrf, practiceService.UploadText)
}
