package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"quorum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PasswordResetToken{},
		&models.Category{},
		&models.Question{},
		&models.Answer{},
		&models.FAQ{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("CreateAndGetByUsername", func(t *testing.T) {
		user := &models.User{Username: "alice", Password: "hash", Role: models.RoleMember}
		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.NotZero(t, user.ID)

		got, err := repo.GetByUsername(ctx, "alice")
		assert.NoError(t, err)
		if assert.NotNil(t, got) {
			assert.Equal(t, user.ID, got.ID)
		}
	})

	t.Run("GetByUsernameMissingReturnsNilNil", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		assert.Error(t, err)
		var appErr *models.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("UpdateRole", func(t *testing.T) {
		user := &models.User{Username: "bob", Password: "hash", Role: models.RoleMember}
		require.NoError(t, repo.Create(ctx, user))

		err := repo.UpdateRole(ctx, user.ID, models.RoleModerator)
		assert.NoError(t, err)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, got.Role)
	})

	t.Run("AddKarmaAccumulates", func(t *testing.T) {
		user := &models.User{Username: "carol", Password: "hash", Role: models.RoleMember}
		require.NoError(t, repo.Create(ctx, user))

		require.NoError(t, repo.AddKarma(ctx, user.ID, 5))
		require.NoError(t, repo.AddKarma(ctx, user.ID, 10))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, got.Karma)
	})

	t.Run("AddKarmaClampsAtZero", func(t *testing.T) {
		user := &models.User{Username: "dave", Password: "hash", Role: models.RoleMember, Karma: 3}
		require.NoError(t, repo.Create(ctx, user))

		require.NoError(t, repo.AddKarma(ctx, user.ID, -10))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Karma)
	})

	t.Run("ListOrdersByKarma", func(t *testing.T) {
		high := &models.User{Username: "erin", Password: "hash", Role: models.RoleMember, Karma: 500}
		require.NoError(t, repo.Create(ctx, high))

		users, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, users)
		assert.Equal(t, "erin", users[0].Username)
	})
}

func TestUserRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnError(errors.New("connection timeout"))

	user, err := repo.GetByID(ctx, 1)
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AddKarma_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.AddKarma(ctx, 1, 5)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
