package services

import (
	"errors"
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
)

// RankingLimit caps leaderboard snapshots served over HTTP and SSE.
const RankingLimit = 100

type RankingService struct {
	DB          *gorm.DB
	Memberships *CompetitionService
}

func NewRankingService(db *gorm.DB, memberships *CompetitionService) *RankingService {
	return &RankingService{DB: db, Memberships: memberships}
}

type RankingEntry struct {
	UserID   uint    `json:"user_id"`
	Username string  `json:"username"`
	WPM      int     `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// --- HTTP handlers ---

func (s *RankingService) GetRankings(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	comp, err := s.Memberships.getCompetition(uint(compID))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	}
	if !s.Memberships.canView(comp, middleware.CurrentUserID(c)) {
		return c.Status(403).JSON(fiber.Map{"error": "forbidden"})
	}

	entries, err := s.Snapshot(comp.ID, RankingLimit)
	if err != nil {
		log.Printf("[RANK] snapshot for %d failed: %v", comp.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "rankings_failed"})
	}
	return c.JSON(fiber.Map{"rankings": entries})
}

func (s *RankingService) SubmitScore(c *fiber.Ctx) error {
	compID, err := c.ParamsInt("id")
	if err != nil || compID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}
	type Req struct {
		WPM      *int     `json:"wpm"`
		Accuracy *float64 `json:"accuracy"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.WPM == nil || req.Accuracy == nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	}

	scoreID, err := s.submitScore(uint(compID), middleware.CurrentUserID(c), *req.WPM, *req.Accuracy)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not_found"})
	case errors.Is(err, ErrNotParticipant):
		return c.Status(403).JSON(fiber.Map{"error": "not_participant"})
	case errors.Is(err, ErrInvalidInput):
		return c.Status(400).JSON(fiber.Map{"error": "invalid_data"})
	case err != nil:
		log.Printf("[RANK] submit for %d failed: %v", compID, err)
		return c.Status(500).JSON(fiber.Map{"error": "submit_failed"})
	}

	return c.Status(201).JSON(fiber.Map{"score_id": scoreID})
}

// --- core operations ---

// Snapshot returns the leaderboard built from the most recent `limit`
// score rows (note: rows, not one-per-user — a prolific submitter can hold
// several slots), ordered by wpm desc, then accuracy desc, then insertion
// order. Pure read.
func (s *RankingService) Snapshot(compID uint, limit int) ([]RankingEntry, error) {
	var scores []models.CompetitionScore
	if err := s.DB.Where("competition_id = ?", compID).
		Order("id DESC").
		Limit(limit).
		Find(&scores).Error; err != nil {
		return nil, err
	}

	// Back to insertion order so the stable sort keeps it as the final
	// tiebreak.
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].WPM != scores[j].WPM {
			return scores[i].WPM > scores[j].WPM
		}
		return scores[i].Accuracy > scores[j].Accuracy
	})

	ids := make([]uint, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.UserID)
	}
	names, err := s.Memberships.usernames(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]RankingEntry, 0, len(scores))
	for _, sc := range scores {
		entries = append(entries, RankingEntry{
			UserID:   sc.UserID,
			Username: names[sc.UserID],
			WPM:      sc.WPM,
			Accuracy: sc.Accuracy,
		})
	}
	return entries, nil
}

func (s *RankingService) submitScore(compID, userID uint, wpm int, accuracy float64) (uint, error) {
	if wpm < 0 || accuracy < 0 {
		return 0, ErrInvalidInput
	}

	comp, err := s.Memberships.getCompetition(compID)
	if err != nil {
		return 0, err
	}
	// Participation is required even for public competitions.
	if !s.Memberships.isParticipant(comp, userID) {
		return 0, ErrNotParticipant
	}

	score := &models.CompetitionScore{
		CompetitionID: compID,
		UserID:        userID,
		WPM:           wpm,
		Accuracy:      accuracy,
	}
	if err := s.DB.Create(score).Error; err != nil {
		return 0, err
	}
	return score.ID, nil
}
