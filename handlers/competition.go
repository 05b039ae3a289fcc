package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lewa-type-backend/middleware"
	"lewa-type-backend/services"
)

// SetupCompetitionRoutes wires the competition subsystem. Read endpoints
// take optional auth (visibility rules still apply); every mutation
// requires a session plus the CSRF double-submit header. Middleware is
// attached per route: a Group on "/" would gate every route registered
// after it, across all Setup functions.
func SetupCompetitionRoutes(
	app *fiber.App,
	secret []byte,
	competitionService *services.CompetitionService,
	inviteService *services.InviteService,
	rankingService *services.RankingService,
	liveService *services.LiveRankingService,
) {
	optional := middleware.OptionalAuth(secret)
	auth := middleware.RequireAuth(secret)
	csrf := middleware.RequireCSRF()

	app.Get("/api/competitions", optional, competitionService.ListCompetitions)
	app.Get("/api/competitions/:id/participants", optional, competitionService.ListParticipants)
	app.Get("/competitions/:id/rankings", optional, rankingService.GetRankings)
	app.Get("/competitions/:id/live", optional, liveService.StreamLive)

	app.Post("/competitions", auth, csrf, competitionService.CreateCompetition)
	app.Post("/competitions/join", auth, csrf, inviteService.Join)
	app.Post("/competitions/:id/invite", auth, csrf, inviteService.CreateInvite)
	app.Post("/competitions/:id/submit-score", auth, csrf, rankingService.SubmitScore)
	app.Post("/competitions/:id/remove-user", auth, csrf, competitionService.RemoveUser)
	app.Post("/competitions/:id/delete", auth, csrf, competitionService.DeleteCompetition)
}
