package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
	"lewa-type-backend/utils"
)

const accessTokenTTL = 24 * time.Hour

type AuthService struct {
	DB     *gorm.DB
	Secret []byte
}

func NewAuthService(db *gorm.DB, secret []byte) *AuthService {
	return &AuthService{DB: db, Secret: secret}
}

func (s *AuthService) Register(c *fiber.Ctx) error {
	type Req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing_fields"})
	}

	user, err := s.register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return c.Status(400).JSON(fiber.Map{"error": "user_exists"})
		}
		log.Printf("[AUTH] register failed for %q: %v", req.Username, err)
		return c.Status(500).JSON(fiber.Map{"error": "registration_failed"})
	}

	return c.Status(201).JSON(fiber.Map{"user_id": user.ID, "username": user.Username})
}

func (s *AuthService) register(username, email, password string) (*models.User, error) {
	var count int64
	if err := s.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	user := &models.User{Username: username, Email: email}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(c *fiber.Ctx) error {
	type Req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	var user models.User
	if err := s.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid_credentials"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(401).JSON(fiber.Map{"error": "invalid_credentials"})
	}

	token, csrf, err := utils.MintAccessToken(s.Secret, user.ID, accessTokenTTL)
	if err != nil {
		log.Printf("[AUTH] token mint failed for user %d: %v", user.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "login_failed"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(accessTokenTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"csrf_token": csrf,
		"user":       fiber.Map{"id": user.ID, "username": user.Username},
	})
}

func (s *AuthService) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"message": "logged_out"})
}
