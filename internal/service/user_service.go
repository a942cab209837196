package service

import (
	"context"
	"log/slog"
	"strings"

	"quorum/internal/karma"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/repository"
	"quorum/internal/validation"
)

const recentContentLimit = 5

type UserService struct {
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

// Profile is a user's public page: the account, its derived reputation tier
// and recently posted content.
type Profile struct {
	User            models.User        `json:"user"`
	Level           karma.Level        `json:"level"`
	RecentQuestions []*models.Question `json:"recent_questions"`
	RecentAnswers   []*models.Answer   `json:"recent_answers"`
}

type UpdateProfileInput struct {
	DisplayName *string
	Email       *string
}

func NewUserService(
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
	}
}

// GetProfile assembles a user's public profile.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.GetByUserID(ctx, id, recentContentLimit)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.GetByUserID(ctx, id, recentContentLimit)
	if err != nil {
		return nil, err
	}

	user.Sanitize()
	return &Profile{
		User:            *user,
		Level:           karma.ForKarma(user.Karma),
		RecentQuestions: questions,
		RecentAnswers:   answers,
	}, nil
}

// UpdateProfile edits the actor's own display name or email.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in UpdateProfileInput) (*models.User, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len(name) > 60 {
			return nil, models.NewValidationError("Display name too long (max 60 characters)")
		}
		user.DisplayName = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != "" {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns accounts ordered by karma. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User, limit, offset int) ([]models.User, error) {
	if actor == nil || !actor.Role.CanManageUsers() {
		return nil, models.NewForbiddenError("Admin role required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Sanitize()
	}
	return users, nil
}

// ChangeRole reassigns a user's role subject to the hierarchy rules: the new
// role must sit strictly below the actor's own, except that an owner may
// assign admin. An owner's role is never changeable, and only an owner may
// change an admin's.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, targetID uint, newRole models.Role) (*models.User, error) {
	if actor == nil || !actor.Role.CanManageUsers() {
		return nil, models.NewForbiddenError("Admin role required")
	}
	if !newRole.Valid() {
		return nil, models.NewValidationError("Unknown role")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role == models.RoleOwner {
		return nil, models.NewForbiddenError("The owner's role cannot be changed")
	}
	if target.Role == models.RoleAdmin && actor.Role != models.RoleOwner {
		return nil, models.NewForbiddenError("Only the owner may change an admin's role")
	}
	if newRole.Rank() >= actor.Role.Rank() {
		return nil, models.NewForbiddenError("Cannot assign a role at or above your own")
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "role changed",
		slog.Uint64("actor_id", uint64(actor.ID)),
		slog.Uint64("target_id", uint64(targetID)),
		slog.String("from", string(target.Role)),
		slog.String("to", string(newRole)),
	)

	target.Role = newRole
	target.Sanitize()
	return target, nil
}
