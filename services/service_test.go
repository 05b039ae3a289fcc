package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lewa-type-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Score{},
		&models.Competition{},
		&models.CompetitionParticipant{},
		&models.CompetitionInvite{},
		&models.CompetitionScore{},
		&models.PracticeText{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestCompetition(t *testing.T, svc *CompetitionService, managerID uint, public bool) *models.Competition {
	t.Helper()
	comp, err := svc.createCompetition(createCompetitionInput{
		Title:     "Geez Sprint",
		Language:  "gez",
		IsPublic:  public,
		AllowJoin: true,
		ManagerID: managerID,
	})
	require.NoError(t, err)
	return comp
}
