package services

import (
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lewa-type-backend/models"
	"lewa-type-backend/utils"
)

// PracticeService manages typing-text assets stored in R2.
type PracticeService struct {
	DB *gorm.DB
}

func NewPracticeService(db *gorm.DB) *PracticeService {
	return &PracticeService{DB: db}
}

func (s *PracticeService) ListTexts(c *fiber.Ctx) error {
	code, _, ok := ResolveLanguage(c.Params("lang"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	var texts []models.PracticeText
	if err := s.DB.Where("language = ?", code).
		Order("created_at DESC").
		Find(&texts).Error; err != nil {
		log.Printf("[PRACTICE] list for %s failed: %v", code, err)
		return c.Status(500).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"language": code, "texts": texts})
}

func (s *PracticeService) UploadText(c *fiber.Ctx) error {
	code, _, ok := ResolveLanguage(c.Params("lang"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	if !utils.R2Enabled() {
		return c.Status(503).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	title := c.FormValue("title")
	file, err := c.FormFile("file")
	if title == "" || err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "missing_fields"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".txt"
	}
	key := "practice/" + code + "/" + uuid.NewString() + ext

	url, err := utils.UploadPracticeText(file, key)
	if err != nil {
		log.Printf("[PRACTICE] upload for %s failed: %v", code, err)
		return c.Status(500).JSON(fiber.Map{"error": "upload_failed"})
	}

	text := &models.PracticeText{
		Language:  code,
		Title:     title,
		ObjectKey: key,
		URL:       url,
	}
	if err := s.DB.Create(text).Error; err != nil {
		log.Printf("[PRACTICE] insert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "upload_failed"})
	}
	return c.Status(201).JSON(text)
}
