package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lewa-type-backend/middleware"
	"lewa-type-backend/models"
	"lewa-type-backend/services"
)

var testSecret = []byte("test-jwt-secret")

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
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

	app := fiber.New()
	authService := services.NewAuthService(db, testSecret)
	competitionService := services.NewCompetitionService(db)
	inviteService := services.NewInviteService(db, competitionService)
	rankingService := services.NewRankingService(db, competitionService)
	liveService := services.NewLiveRankingService(rankingService, services.DefaultLivePeriod)
	scoreService := services.NewScoreService(db)
	practiceService := services.NewPracticeService(db)

	SetupAuthRoutes(app, authService)
	SetupCompetitionRoutes(app, testSecret, competitionService, inviteService, rankingService, liveService)
	SetupPracticeRoutes(app, testSecret, practiceService, scoreService)
	return app, db
}

type session struct {
	cookie *http.Cookie
	csrf   string
}

func (s *session) apply(req *http.Request) {
	if s == nil {
		return
	}
	req.AddCookie(s.cookie)
	req.Header.Set(middleware.CSRFHeader, s.csrf)
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, sess *session) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	sess.apply(req)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func signup(t *testing.T, app *fiber.App, username string) *session {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"secret123"}`, username, username)
	resp, _ := doJSON(t, app, "POST", "/auth/register", body, nil)
	require.Equal(t, 201, resp.StatusCode)

	resp, out := doJSON(t, app, "POST", "/auth/login",
		fmt.Sprintf(`{"username":%q,"password":"secret123"}`, username), nil)
	require.Equal(t, 200, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the access cookie")
	csrf, _ := out["csrf_token"].(string)
	require.NotEmpty(t, csrf)
	return &session{cookie: cookie, csrf: csrf}
}

func TestInviteJoinSubmitRankingsScenario(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	player := signup(t, app, "player")

	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Evening Sprint","language":"gez","is_public":false,"live_ranking":true}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	resp, out = doJSON(t, app, "POST", fmt.Sprintf("/competitions/%d/invite", compID), "", manager)
	require.Equal(t, 201, resp.StatusCode)
	token := out["invite_token"].(string)
	require.NotEmpty(t, token)

	resp, out = doJSON(t, app, "POST", "/competitions/join",
		fmt.Sprintf(`{"token":%q}`, token), player)
	require.Equal(t, 200, resp.StatusCode)
	assert.EqualValues(t, compID, out["competition_id"])

	resp, out = doJSON(t, app, "POST", fmt.Sprintf("/competitions/%d/submit-score", compID),
		`{"wpm":80,"accuracy":97.5}`, player)
	require.Equal(t, 201, resp.StatusCode)
	assert.NotZero(t, out["score_id"])

	resp, out = doJSON(t, app, "GET", fmt.Sprintf("/competitions/%d/rankings", compID), "", player)
	require.Equal(t, 200, resp.StatusCode)
	rankings := out["rankings"].([]interface{})
	require.Len(t, rankings, 1)
	row := rankings[0].(map[string]interface{})
	assert.Equal(t, "player", row["username"])
	assert.EqualValues(t, 80, row["wpm"])
	assert.EqualValues(t, 97.5, row["accuracy"])
}

func TestPublicEndpoints_OpenToAnonymous(t *testing.T) {
	// Auth routes are registered first (as in main), so this catches any
	// secured middleware bleeding onto routes registered later.
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Open Sprint","language":"gez","is_public":true}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	for _, path := range []string{
		"/api/languages",
		"/api/competitions",
		"/api/leaderboard",
		fmt.Sprintf("/api/competitions/%d/participants", compID),
		fmt.Sprintf("/competitions/%d/rankings", compID),
		"/api/practice/gez/texts",
	} {
		resp, out := doJSON(t, app, "GET", path, "", nil)
		assert.Equalf(t, 200, resp.StatusCode, "GET %s: %v", path, out)
	}
}

func TestSubmitScore_Anonymous(t *testing.T) {
	app, db := newTestApp(t)

	manager := signup(t, app, "manager")
	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Open Sprint","language":"am","is_public":true}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	resp, out = doJSON(t, app, "POST", fmt.Sprintf("/competitions/%d/submit-score", compID),
		`{"wpm":80,"accuracy":97.5}`, nil)
	require.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, "not_authenticated", out["error"])

	var count int64
	db.Model(&models.CompetitionScore{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestMutation_RejectsCSRFMismatch(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	bad := &session{cookie: manager.cookie, csrf: "forged"}

	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Sprint","language":"gez"}`, bad)
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "invalid_csrf", out["error"])
}

func TestCreateCompetition_MissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	resp, out := doJSON(t, app, "POST", "/competitions", `{"title":"No language"}`, manager)
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "missing_fields", out["error"])
}

func TestPrivateRankings_ForbiddenForOutsiders(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	outsider := signup(t, app, "outsider")

	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Secret Sprint","language":"ewo","is_public":false}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	resp, out = doJSON(t, app, "GET", fmt.Sprintf("/competitions/%d/rankings", compID), "", outsider)
	require.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "forbidden", out["error"])

	resp, _ = doJSON(t, app, "GET", fmt.Sprintf("/competitions/%d/rankings", compID), "", nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestJoin_InvalidToken(t *testing.T) {
	app, _ := newTestApp(t)

	player := signup(t, app, "player")
	resp, out := doJSON(t, app, "POST", "/competitions/join", `{"token":"bogus"}`, player)
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "invalid_invite", out["error"])
}

func TestJoin_AlreadyJoinedIsSuccess(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	player := signup(t, app, "player")

	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Sprint","language":"gez","is_public":false}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	invite := func() string {
		resp, out := doJSON(t, app, "POST", fmt.Sprintf("/competitions/%d/invite", compID), "", manager)
		require.Equal(t, 201, resp.StatusCode)
		return out["invite_token"].(string)
	}

	resp, _ = doJSON(t, app, "POST", "/competitions/join", fmt.Sprintf(`{"token":%q}`, invite()), player)
	require.Equal(t, 200, resp.StatusCode)

	resp, out = doJSON(t, app, "POST", "/competitions/join", fmt.Sprintf(`{"token":%q}`, invite()), player)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "already_joined", out["message"])
}

func TestLiveStream_NotFoundWhenDisabled(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Quiet Sprint","language":"gez","live_ranking":false}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	resp, out = doJSON(t, app, "GET", fmt.Sprintf("/competitions/%d/live", compID), "", manager)
	require.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "not_found", out["error"])
}

func TestDeleteCompetition_EndToEnd(t *testing.T) {
	app, _ := newTestApp(t)

	manager := signup(t, app, "manager")
	resp, out := doJSON(t, app, "POST", "/competitions",
		`{"title":"Doomed","language":"fmp"}`, manager)
	require.Equal(t, 201, resp.StatusCode)
	compID := int(out["competition_id"].(float64))

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/competitions/%d/delete", compID), "", manager)
	require.Equal(t, 200, resp.StatusCode)

	resp, out = doJSON(t, app, "GET", fmt.Sprintf("/competitions/%d/rankings", compID), "", manager)
	require.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "not_found", out["error"])
}
