package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
	"lewa-type-backend/utils"
)

type InviteService struct {
	DB          *gorm.DB
	Memberships *CompetitionService
}

func NewInviteService(db *gorm.DB, memberships *CompetitionService) *InviteService {
	return &InviteService{DB: db, Memberships: memberships}
}

// --- HTTP handlers ---

func (s *InviteService) CreateInvite(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	type Req struct {
		Email     string     `json:"email"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	var req Req
	// Body is optional; an empty invite is an open door for one joiner.
	_ = c.BodyParser(&req)

	inv, err := s.createInvite(uint(compID), middleware.CurrentUserID(c), req.Email, req.ExpiresAt)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	case errors.Is(err, ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	case err != nil:
		log.Printf("[INVITE] create for competition %d failed: %v", compID, err)
		return c.Status(500).JSON(fiber.Map{"error": "invite_failed"})
	}

	return c.Status(201).JSON(fiber.Map{"invite_token": inv.Token})
}

func (s *InviteService) Join(c *fiber.Ctx) error {
	type Req struct {
		Token string `json:"token"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	compID, already, err := s.redeemInvite(req.Token, middleware.CurrentUserID(c))
	switch {
	case errors.Is(err, ErrInvalidInvite):
		return c.Status(400).JSON(fiber.Map{"error": "invalid_invite"})
	case errors.Is(err, ErrJoiningClosed):
		return c.Status(403).JSON(fiber.Map{"error": "joining_closed"})
	case err != nil:
		log.Printf("[INVITE] redeem failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "join_failed"})
	}

	if already {
		return c.JSON(fiber.Map{"message": "already_joined", "competition_id": compID})
	}
	return c.JSON(fiber.Map{"competition_id": compID})
}

// --- core operations ---

func (s *InviteService) createInvite(compID, requesterID uint, email string, expiresAt *time.Time) (*models.CompetitionInvite, error) {
	comp, err := s.Memberships.getCompetition(compID)
	if err != nil {
		return nil, err
	}
	if !s.Memberships.canManage(comp, requesterID) {
		return nil, ErrForbidden
	}

	token, err := utils.NewInviteToken()
	if err != nil {
		return nil, err
	}

	inv := &models.CompetitionInvite{
		CompetitionID: comp.ID,
		Token:         token,
		Email:         email,
		InvitedBy:     requesterID,
		ExpiresAt:     expiresAt,
	}
	if err := s.DB.Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// redeemInvite consumes a token and enrolls the user. The whole flow runs
// in one transaction: a crash can never leave a consumed invite without a
// participant row, and concurrent redemptions of the same token produce
// exactly one consumption (the used flag is flipped with a conditional
// update and checked via RowsAffected).
//
// When the user is already a participant the call succeeds as a no-op
// enrollment, but the presented invite is still marked used: tokens are
// strictly single-use regardless of who presents them.
func (s *InviteService) redeemInvite(token string, userID uint) (uint, bool, error) {
	var compID uint
	var already bool

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var inv models.CompetitionInvite
		if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInvite
			}
			return err
		}
		if !inv.IsValid() {
			return ErrInvalidInvite
		}

		var comp models.Competition
		if err := tx.First(&comp, "id = ?", inv.CompetitionID).Error; err != nil {
			return ErrInvalidInvite
		}
		if !comp.AllowJoin {
			return ErrJoiningClosed
		}

		// Conditional update: the loser of a concurrent redemption race
		// flips zero rows and is rejected.
		res := tx.Model(&models.CompetitionInvite{}).
			Where("id = ? AND used = ?", inv.ID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidInvite
		}

		already = s.participantRowExists(tx, comp.ID, userID)
		if !already {
			if err := s.Memberships.enroll(tx, comp.ID, userID); err != nil {
				return err
			}
		}

		compID = comp.ID
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return compID, already, nil
}

func (s *InviteService) participantRowExists(tx *gorm.DB, compID, userID uint) bool {
	var count int64
	tx.Model(&models.CompetitionParticipant{}).
		Where("competition_id = ? AND user_id = ?", compID, userID).
		Count(&count)
	return count > 0
}
