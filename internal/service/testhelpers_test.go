package service

import (
	"context"
	"testing"

	"quorum/internal/models"
	"quorum/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the services over real repositories and an in-memory
// database, so service tests cover the full ask/answer/vote/karma flows.
type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	sessions  repository.SessionRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository

	auth      *AuthService
	question  *QuestionService
	answer    *AnswerService
	user      *UserService
	directory *DirectoryService

	category *models.Category
}

func newTestEnv(t *testing.T) *testEnv {
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

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	questions := repository.NewQuestionRepository(db)
	answers := repository.NewAnswerRepository(db)
	categories := repository.NewCategoryRepository(db)
	faqs := repository.NewFAQRepository(db)

	env := &testEnv{
		db:        db,
		users:     users,
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		auth:      NewAuthService(users, sessions),
		question:  NewQuestionService(questions, answers, categories, users),
		answer:    NewAnswerService(answers, questions, users),
		user:      NewUserService(users, questions, answers),
		directory: NewDirectoryService(categories, faqs, questions, answers, users),
	}

	env.category = &models.Category{Name: "General", Slug: "general"}
	require.NoError(t, db.Create(env.category).Error)

	return env
}

// register creates an account through the real registration path. The very
// first account in a fresh database becomes the owner, so tests that need
// plain members register a throwaway owner first.
func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	return user
}

// memberWithRole registers an account and forces its role.
func (e *testEnv) memberWithRole(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user := e.register(t, username)
	require.NoError(t, e.users.UpdateRole(context.Background(), user.ID, role))
	user.Role = role
	return user
}

// ask creates a question authored by the given user.
func (e *testEnv) ask(t *testing.T, author *models.User) *models.Question {
	t.Helper()
	q, err := e.question.Create(context.Background(), CreateQuestionInput{
		Title:      "How do karma rewards get applied?",
		Content:    "Looking for the exact reward flow on content events.",
		CategoryID: e.category.ID,
	}, author)
	require.NoError(t, err)
	return q
}

func (e *testEnv) karma(t *testing.T, userID uint) int {
	t.Helper()
	user, err := e.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.Karma
}
