package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
)

type CompetitionService struct {
	DB *gorm.DB
}

func NewCompetitionService(db *gorm.DB) *CompetitionService {
	return &CompetitionService{DB: db}
}

// --- HTTP handlers ---

func (s *CompetitionService) CreateCompetition(c *fiber.Ctx) error {
	type Req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Language    string     `json:"language"`
		IsPublic    *bool      `json:"is_public"`
		AllowJoin   *bool      `json:"allow_join"`
		LiveRanking *bool      `json:"live_ranking"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	boolOr := func(v *bool, def bool) bool {
		if v == nil {
			return def
		}
		return *v
	}

	comp, err := s.createCompetition(createCompetitionInput{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		IsPublic:    boolOr(req.IsPublic, true),
		AllowJoin:   boolOr(req.AllowJoin, true),
		LiveRanking: boolOr(req.LiveRanking, true),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		ManagerID:   middleware.CurrentUserID(c),
	})
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			return c.Status(400).JSON(fiber.Map{"error": "missing_fields"})
		}
		if errors.Is(err, ErrInvalidInput) {
			return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
		}
		log.Printf("[COMP] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "create_failed"})
	}

	return c.Status(201).JSON(fiber.Map{"competition_id": comp.ID})
}

func (s *CompetitionService) ListCompetitions(c *fiber.Ctx) error {
	comps, err := s.listFor(middleware.CurrentUserID(c))
	if err != nil {
		log.Printf("[COMP] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"competitions": comps})
}

func (s *CompetitionService) ListParticipants(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	comp, err := s.getCompetition(uint(compID))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	}
	if !s.canView(comp, middleware.CurrentUserID(c)) {
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}

	rows, err := s.participants(comp.ID)
	if err != nil {
		log.Printf("[COMP] participants query failed for %d: %v", comp.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"participants": rows})
}

func (s *CompetitionService) RemoveUser(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	type Req struct {
		UserID uint `json:"user_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	err = s.removeParticipant(uint(compID), req.UserID, middleware.CurrentUserID(c))
	switch {
	case errors.Is(err, ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	case err != nil:
		log.Printf("[COMP] remove user %d from %d failed: %v", req.UserID, compID, err)
		return c.Status(500).JSON(fiber.Map{"error": "remove_failed"})
	}
	return c.JSON(fiber.Map{"message": "removed"})
}

func (s *CompetitionService) DeleteCompetition(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	err = s.deleteCompetition(uint(compID), middleware.CurrentUserID(c))
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	case errors.Is(err, ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	case err != nil:
		log.Printf("[COMP] delete %d failed: %v", compID, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete_failed"})
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

// --- core operations ---

type createCompetitionInput struct {
	Title       string
	Description string
	Language    string
	IsPublic    bool
	AllowJoin   bool
	LiveRanking bool
	StartsAt    *time.Time
	EndsAt      *time.Time
	ManagerID   uint
}

func (s *CompetitionService) createCompetition(in createCompetitionInput) (*models.Competition, error) {
	if in.Title == "" || in.Language == "" {
		return nil, ErrMissingFields
	}
	code, _, ok := ResolveLanguage(in.Language)
	if !ok {
		return nil, ErrInvalidInput
	}

	comp := &models.Competition{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Language:    code,
		IsPublic:    in.IsPublic,
		AllowJoin:   in.AllowJoin,
		LiveRanking: in.LiveRanking,
		ManagerID:   in.ManagerID,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}

	// Creator is enrolled in the same transaction, so a competition never
	// exists without its manager as participant.
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comp).Error; err != nil {
			return err
		}
		return tx.Create(&models.CompetitionParticipant{
			CompetitionID: comp.ID,
			UserID:        in.ManagerID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return comp, nil
}

func (s *CompetitionService) getCompetition(id uint) (*models.Competition, error) {
	var comp models.Competition
	if err := s.DB.First(&comp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comp, nil
}

// canView: public competitions are visible to everyone; private ones only
// to the manager and participants. Manager equality is checked directly,
// never via a participant row.
func (s *CompetitionService) canView(comp *models.Competition, userID uint) bool {
	if comp.IsPublic {
		return true
	}
	if userID == 0 {
		return false
	}
	if comp.ManagerID == userID {
		return true
	}
	return s.isParticipantRow(comp.ID, userID)
}

func (s *CompetitionService) canManage(comp *models.Competition, userID uint) bool {
	return userID != 0 && comp.ManagerID == userID
}

// isParticipant is the derived fact: enrollment row OR manager.
func (s *CompetitionService) isParticipant(comp *models.Competition, userID uint) bool {
	if userID == 0 {
		return false
	}
	if comp.ManagerID == userID {
		return true
	}
	return s.isParticipantRow(comp.ID, userID)
}

func (s *CompetitionService) isParticipantRow(compID, userID uint) bool {
	var count int64
	s.DB.Model(&models.CompetitionParticipant{}).
		Where("competition_id = ? AND user_id = ?", compID, userID).
		Count(&count)
	return count > 0
}

// enroll inserts a participant row, a no-op when one already exists.
func (s *CompetitionService) enroll(tx *gorm.DB, compID, userID uint) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CompetitionParticipant{CompetitionID: compID, UserID: userID}).Error
}

// removeParticipant deletes the enrollment row only; historical scores are
// kept.
func (s *CompetitionService) removeParticipant(compID, userID, requesterID uint) error {
	comp, err := s.getCompetition(compID)
	if err != nil {
		return err
	}
	if !s.canManage(comp, requesterID) {
		return ErrForbidden
	}

	res := s.DB.Where("competition_id = ? AND user_id = ?", compID, userID).
		Delete(&models.CompetitionParticipant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CompetitionService) listFor(userID uint) ([]models.Competition, error) {
	var comps []models.Competition
	q := s.DB.Model(&models.Competition{}).Order("competitions.created_at DESC")
	if userID == 0 {
		q = q.Where("competitions.is_public = ?", true)
	} else {
		q = q.
			Joins("LEFT JOIN competition_participants cp ON cp.competition_id = competitions.id AND cp.user_id = ?", userID).
			Where("competitions.is_public = ? OR competitions.manager_id = ? OR cp.user_id IS NOT NULL", true, userID).
			Distinct("competitions.*")
	}
	if err := q.Find(&comps).Error; err != nil {
		return nil, err
	}
	return comps, nil
}

type ParticipantRow struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joined_at"`
	IsManager bool      `json:"is_manager"`
}

func (s *CompetitionService) participants(compID uint) ([]ParticipantRow, error) {
	comp, err := s.getCompetition(compID)
	if err != nil {
		return nil, err
	}

	var parts []models.CompetitionParticipant
	if err := s.DB.Where("competition_id = ?", compID).
		Order("joined_at ASC, id ASC").
		Find(&parts).Error; err != nil {
		return nil, err
	}

	names, err := s.usernames(userIDsOf(parts))
	if err != nil {
		return nil, err
	}

	rows := make([]ParticipantRow, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, ParticipantRow{
			UserID:    p.UserID,
			Username:  names[p.UserID],
			JoinedAt:  p.JoinedAt,
			IsManager: p.UserID == comp.ManagerID,
		})
	}
	return rows, nil
}

func userIDsOf(parts []models.CompetitionParticipant) []uint {
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.UserID)
	}
	return ids
}

// usernames resolves ids to display names. Users that no longer exist get
// a synthesized "User <id>" name.
func (s *CompetitionService) usernames(ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	if err := s.DB.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = fmt.Sprintf("User %d", id)
		}
	}
	return names, nil
}

// deleteCompetition cascades: scores, invites and participants go with the
// competition, in FK-safe order.
func (s *CompetitionService) deleteCompetition(compID, requesterID uint) error {
	comp, err := s.getCompetition(compID)
	if err != nil {
		return err
	}
	if !s.canManage(comp, requesterID) {
		return ErrForbidden
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("competition_id = ?", compID).Delete(&models.CompetitionScore{}).Error; err != nil {
			return err
		}
		if err := tx.Where("competition_id = ?", compID).Delete(&models.CompetitionInvite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("competition_id = ?", compID).Delete(&models.CompetitionParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Competition{}, "id = ?", compID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
