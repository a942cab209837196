package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"
	"quorum/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SessionTTL is how long a login session stays valid.
	SessionTTL = 7 * 24 * time.Hour
	// ResetTokenTTL is how long a password-reset token stays redeemable.
	ResetTokenTTL = time.Hour

	bcryptCost = 12
)

// dummyHash is a real bcrypt digest compared against when the username does
// not exist, so a failed login costs the same either way.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
}

type LoginInput struct {
	Username string
	Password string
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) *AuthService {
	return &AuthService{userRepo: userRepo, sessionRepo: sessionRepo}
}

// Register creates a new member account. The first account ever created
// becomes the owner.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, err
		}
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    username,
		Password:    string(hashed),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Email:       strings.TrimSpace(in.Email),
		Role:        models.RoleMember,
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		user.Role = models.RoleOwner
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login verifies credentials and opens a new session. Each successful login
// also sweeps expired session rows, so the table cleans itself under normal
// traffic without a background job.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, *models.Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, nil, err
	}

	hash := dummyHash
	if user != nil {
		hash = user.Password
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)); err != nil || user == nil {
		return nil, nil, models.NewUnauthorizedError("Invalid username or password")
	}

	now := time.Now().UTC()
	if swept, err := s.sessionRepo.DeleteExpired(ctx, now); err != nil {
		middleware.Logger.WarnContext(ctx, "session sweep failed", slog.String("error", err.Error()))
	} else if swept > 0 {
		observability.SessionsSwept.Add(float64(swept))
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	middleware.Logger.InfoContext(ctx, "user logged in", slog.Uint64("user_id", uint64(user.ID)))
	return user, session, nil
}

// Logout ends the session. Logging out an unknown or already-ended session
// succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessionRepo.Delete(ctx, sessionID)
}

// Authenticate resolves a session ID to its user. Expired or unknown
// sessions return an unauthorized error.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(time.Now().UTC()) {
		return nil, models.NewUnauthorizedError("Session expired or invalid")
	}
	return s.userRepo.GetByID(ctx, session.UserID)
}

// RequestPasswordReset issues a reset token for the account. The returned
// token is empty when the username does not exist; callers respond
// identically either way so the endpoint never confirms which usernames
// are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	token := &models.PasswordResetToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(ResetTokenTTL),
	}
	if err := s.sessionRepo.CreateResetToken(ctx, token); err != nil {
		return "", err
	}
	return token.Token, nil
}

// ResetPassword redeems a reset token and replaces the account password.
// Consumption and password change happen in one transaction, so a replayed
// request fails and a failed write never burns the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	row, err := s.sessionRepo.RedeemResetToken(ctx, token, time.Now().UTC(), string(hashed))
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "password reset completed", slog.Uint64("user_id", uint64(row.UserID)))
	return nil
}
