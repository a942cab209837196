package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quorum/internal/config"
	"quorum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PasswordResetToken{},
		&models.Category{},
		&models.Question{},
		&models.Answer{},
		&models.FAQ{},
	))

	cfg := &config.Config{
		Port:       "0",
		Env:        "test",
		CookieName: "quorum_session",
	}
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)

	require.NoError(t, db.Create(&models.Category{Name: "General", Slug: "general"}).Error)

	return srv, app, db
}

// doJSON performs a request with an optional JSON body and session cookie.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, cookie string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin creates an account over the API and returns its session cookie.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": username,
		"password": "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", fiber.Map{
		"username": username,
		"password": "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == "quorum_session" {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatal("no session cookie in login response")
	return ""
}

func promote(t *testing.T, db *gorm.DB, username string, role models.Role) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", username).
		Update("role", role).Error)
}

func TestAuthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	t.Run("RegisterValidationError", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", fiber.Map{
			"username": "x",
			"password": "short",
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("RegisterLoginMeLogout", func(t *testing.T) {
		cookie := registerAndLogin(t, app, "alice")

		resp := doJSON(t, app, http.MethodGet, "/api/auth/me", nil, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		user := body["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])
		assert.Nil(t, user["password"])

		resp = doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodGet, "/api/auth/me", nil, cookie)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("DuplicateUsernameConflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", fiber.Map{
			"username": "alice",
			"password": "another-password-1",
		}, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("WrongPasswordUnauthorized", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/login", fiber.Map{
			"username": "alice",
			"password": "wrong-password-1",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("PasswordResetFlow", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/request-reset", fiber.Map{
			"username": "alice",
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		token, _ := body["token"].(string)
		require.NotEmpty(t, token)

		resp = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", fiber.Map{
			"token":        token,
			"new_password": "brand-new-password",
		}, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		// Same token again fails.
		resp = doJSON(t, app, http.MethodPost, "/api/auth/reset-password", fiber.Map{
			"token":        token,
			"new_password": "sneaky-replay-pass",
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("ResetRequestNeverLeaksExistence", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/request-reset", fiber.Map{
			"username": "nobody-here",
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Nil(t, body["token"])
	})
}

func TestQuestionEndpoints(t *testing.T) {
	_, app, db := newTestServer(t)

	// Burn the first registration on a bootstrap account: it becomes the
	// owner, and the authorization subtests below need "asker" to be a
	// plain member.
	registerAndLogin(t, app, "site-owner")
	cookie := registerAndLogin(t, app, "asker")

	var asker models.User
	require.NoError(t, db.Where("username = ?", "asker").First(&asker).Error)
	require.Equal(t, models.RoleMember, asker.Role)

	var questionID float64

	t.Run("CreateRequiresAuth", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/questions", fiber.Map{
			"title":       "Will this request be allowed through?",
			"content":     "It should not be, without a session cookie.",
			"category_id": 1,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("CreateAndFetch", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/questions", fiber.Map{
			"title":       "How do I test a question endpoint?",
			"content":     "Posting through the full HTTP stack here.",
			"category_id": 1,
		}, cookie)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		q := body["question"].(map[string]any)
		questionID = q["id"].(float64)

		resp = doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/questions/%d", int(questionID)), nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body = decodeBody(t, resp)
		got := body["question"].(map[string]any)
		assert.Equal(t, "How do I test a question endpoint?", got["title"])
		assert.Equal(t, float64(0), got["votes"])
	})

	t.Run("AnonymousVote", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/questions/%d/vote", int(questionID)),
			fiber.Map{"direction": "up"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		q := body["question"].(map[string]any)
		assert.Equal(t, float64(1), q["votes"])
	})

	t.Run("InvalidVoteDirection", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/questions/%d/vote", int(questionID)),
			fiber.Map{"direction": "sideways"}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("ListAndSearch", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/questions?sort=top", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["questions"])

		resp = doJSON(t, app, http.MethodGet, "/api/questions/search?q=full+HTTP+stack", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body = decodeBody(t, resp)
		assert.Len(t, body["questions"], 1)
	})

	t.Run("PinRequiresModerator", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/questions/%d/pin", int(questionID)), nil, cookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("ModeratorPinsAndDeletes", func(t *testing.T) {
		modCookie := registerAndLogin(t, app, "moddy")
		promote(t, db, "moddy", models.RoleModerator)

		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/questions/%d/pin", int(questionID)), nil, modCookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodDelete,
			fmt.Sprintf("/api/questions/%d", int(questionID)), nil, modCookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/questions/%d", int(questionID)), nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("UnknownQuestionIs404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/questions/99999", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAnswerEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)
	askerCookie := registerAndLogin(t, app, "asker")
	helperCookie := registerAndLogin(t, app, "helper")

	resp := doJSON(t, app, http.MethodPost, "/api/questions", fiber.Map{
		"title":       "Which answer will get accepted here?",
		"content":     "Exercising the answer endpoints end to end.",
		"category_id": 1,
	}, askerCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	q := decodeBody(t, resp)["question"].(map[string]any)
	questionID := int(q["id"].(float64))

	resp = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/questions/%d/answers", questionID),
		fiber.Map{"content": "This answer arrives over plain HTTP."}, helperCookie)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	a := decodeBody(t, resp)["answer"].(map[string]any)
	answerID := int(a["id"].(float64))

	t.Run("AnswerCountReflectsCreate", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/questions/%d", questionID), nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody(t, resp)["question"].(map[string]any)
		assert.Equal(t, float64(1), got["answer_count"])
	})

	t.Run("HelperCannotAcceptOwnAnswerOnOthersQuestion", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/answers/%d/accept", answerID), nil, helperCookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("QuestionAuthorAccepts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/answers/%d/accept", answerID), nil, askerCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody(t, resp)["answer"].(map[string]any)
		assert.Equal(t, true, got["is_accepted"])
	})

	t.Run("AnswerVote", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/answers/%d/vote", answerID),
			fiber.Map{"direction": "down"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody(t, resp)["answer"].(map[string]any)
		assert.Equal(t, float64(-1), got["votes"])
	})

	t.Run("MemberCannotDeleteAnswer", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete,
			fmt.Sprintf("/api/answers/%d", answerID), nil, helperCookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestDirectoryAndProfileEndpoints(t *testing.T) {
	_, app, db := newTestServer(t)
	cookie := registerAndLogin(t, app, "profiled")

	t.Run("Categories", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/categories", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["categories"], 1)

		resp = doJSON(t, app, http.MethodGet, "/api/categories/general", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodGet, "/api/categories/nope", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("ProfileShowsLevelAndContent", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/questions", fiber.Map{
			"title":       "What does my own profile look like?",
			"content":     "Profile pages include level and recent posts.",
			"category_id": 1,
		}, cookie)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		var user models.User
		require.NoError(t, db.Where("username = ?", "profiled").First(&user).Error)

		resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		level := body["level"].(map[string]any)
		assert.NotEmpty(t, level["title"])
		assert.Len(t, body["recent_questions"], 1)
	})

	t.Run("UpdateMyProfile", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPut, "/api/users/me", fiber.Map{
			"display_name": "The Profiled One",
		}, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user := decodeBody(t, resp)["user"].(map[string]any)
		assert.Equal(t, "The Profiled One", user["display_name"])
	})

	t.Run("Stats", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/stats", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stats := decodeBody(t, resp)["stats"].(map[string]any)
		assert.Equal(t, float64(1), stats["categories"])
		assert.GreaterOrEqual(t, stats["users"], float64(1))
	})
}

func TestAdminEndpoints(t *testing.T) {
	_, app, db := newTestServer(t)

	// First account registered becomes the owner.
	ownerCookie := registerAndLogin(t, app, "first-owner")
	memberCookie := registerAndLogin(t, app, "plain-member")

	var member models.User
	require.NoError(t, db.Where("username = ?", "plain-member").First(&member).Error)

	t.Run("MemberCannotListUsers", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/admin/users", nil, memberCookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("OwnerPromotesMemberToAdmin", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPatch,
			fmt.Sprintf("/api/admin/users/%d/role", member.ID),
			fiber.Map{"role": "admin"}, ownerCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user := decodeBody(t, resp)["user"].(map[string]any)
		assert.Equal(t, "admin", user["role"])
	})

	t.Run("AdminCannotTouchOwner", func(t *testing.T) {
		var owner models.User
		require.NoError(t, db.Where("username = ?", "first-owner").First(&owner).Error)

		resp := doJSON(t, app, http.MethodPatch,
			fmt.Sprintf("/api/admin/users/%d/role", owner.ID),
			fiber.Map{"role": "member"}, memberCookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("AdminListsUsers", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/admin/users", nil, memberCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["users"], 2)
	})
}

func TestHealthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}
