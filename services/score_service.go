package services

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
)

// ScoreService handles personal practice scores, outside competitions.
type ScoreService struct {
	DB *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{DB: db}
}

func (s *ScoreService) SubmitPracticeScore(c *fiber.Ctx) error {
	type Req struct {
		Language string   `json:"language"`
		WPM      *int     `json:"wpm"`
		Accuracy *float64 `json:"accuracy"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.WPM == nil || req.Accuracy == nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	if *req.WPM < 0 || *req.Accuracy < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	code, _, ok := ResolveLanguage(req.Language)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	score := &models.Score{
		UserID:   middleware.CurrentUserID(c),
		Language: code,
		WPM:      *req.WPM,
		Accuracy: *req.Accuracy,
	}
	if err := s.DB.Create(score).Error; err != nil {
		log.Printf("[SCORE] insert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "submit_failed"})
	}
	return c.Status(201).JSON(fiber.Map{"score_id": score.ID})
}

func (s *ScoreService) GetOwnScores(c *fiber.Ctx) error {
	var scores []models.Score
	q := s.DB.Where("user_id = ?", middleware.CurrentUserID(c)).Order("created_at DESC")
	if lang := c.Query("lang"); lang != "" {
		code, _, ok := ResolveLanguage(lang)
		if !ok {
			return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
		}
		q = q.Where("language = ?", code)
	}
	if err := q.Find(&scores).Error; err != nil {
		log.Printf("[SCORE] history query failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"scores": scores})
}

// GetLeaderboard serves the per-language practice leaderboard: each user's
// single best run, fastest first.
func (s *ScoreService) GetLeaderboard(c *fiber.Ctx) error {
	code, _, ok := ResolveLanguage(c.Query("lang", DefaultLanguage))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	type Row struct {
		UserID   uint    `json:"user_id"`
		Username string  `json:"username"`
		WPM      int     `json:"wpm"`
		Accuracy float64 `json:"accuracy"`
	}
	var rows []Row
	err := s.DB.Model(&models.Score{}).
		Select("scores.user_id, users.username, MAX(scores.wpm) AS wpm, MAX(scores.accuracy) AS accuracy").
		Joins("JOIN users ON users.id = scores.user_id").
		Where("scores.language = ?", code).
		Group("scores.user_id, users.username").
		Order("wpm DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		log.Printf("[SCORE] leaderboard query failed for %s: %v", code, err)
		return c.Status(500).JSON(fiber.Map{"error": "leaderboard_failed"})
	}
	return c.JSON(fiber.Map{"language": code, "leaderboard": rows})
}
