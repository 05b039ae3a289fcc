package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lewa-type-backend/handlers"
	"lewa-type-backend/models"
	"lewa-type-backend/services"
	"lewa-type-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "lewa-type",
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-CSRF-TOKEN",
		AllowCredentials: true,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET_KEY environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Score{},
		&models.Competition{},
		&models.CompetitionParticipant{},
		&models.CompetitionInvite{},
		&models.CompetitionScore{},
		&models.PracticeText{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  Object storage disabled: %v", err)
	}

	secret := []byte(jwtSecret)
	authService := services.NewAuthService(db, secret)
	competitionService := services.NewCompetitionService(db)
	inviteService := services.NewInviteService(db, competitionService)
	rankingService := services.NewRankingService(db, competitionService)
	liveService := services.NewLiveRankingService(rankingService, services.DefaultLivePeriod)
	scoreService := services.NewScoreService(db)
	practiceService := services.NewPracticeService(db)

	competitionService.StartMaintenanceScheduler()

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupCompetitionRoutes(app, secret, competitionService, inviteService, rankingService, liveService)
	handlers.SetupPracticeRoutes(app, secret, practiceService, scoreService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Maintenance scheduler running (invite sweep, join close)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
