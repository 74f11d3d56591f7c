package service

import (
	"context"
	"errors"
	"fmt"
	"it-asset-tracker/internal/auth"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/repository"
	apperrors "it-asset-tracker/pkg/errors"
	"it-asset-tracker/pkg/validation"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// UserConfig holds account settings for UserService.
type UserConfig struct {
	AdminEmail    string
	AdminPassword string
	ResetURL      string
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// UserService handles accounts, login and password resets.
type UserService struct {
	repo     repository.UserRepository
	tokens   *auth.TokenManager
	resets   auth.ResetTokenStore
	notifier NotificationService
	config   UserConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, tokens *auth.TokenManager, resets auth.ResetTokenStore, notifier NotificationService, config UserConfig, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Default()
	}
	return &UserService{
		repo:     repo,
		tokens:   tokens,
		resets:   resets,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Login checks credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.UnauthorizedError("invalid email or password")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.UnauthorizedError("invalid email or password")
		}
		return nil, apperrors.DatabaseError("failed to look up user", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.UnauthorizedError("invalid email or password")
	}

	token, expires, err := s.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.InternalError("failed to issue token", err)
	}
	s.logger.Printf("User logged in: %s (%s)", user.Email, user.Role)
	return &LoginResult{Token: token, ExpiresAt: expires, User: *user}, nil
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve users", err)
	}
	return users, nil
}

// CreateUser validates and stores a new account. Role defaults to Viewer.
func (s *UserService) CreateUser(ctx context.Context, input model.CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = model.RoleViewer
	}

	if err := validation.ValidatePersonName(name); err != nil {
		return nil, apperrors.ValidationFailed("name", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperrors.ValidationFailed("email", err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.ValidationFailed("password", err.Error())
	}
	if !model.ValidRole(role) {
		return nil, apperrors.ValidationFailed("role", fmt.Sprintf("unknown role %q", role))
	}

	hash, err := auth.HashPassword(input.Password, s.config.BcryptCost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	now := s.now()
	user := model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, mapUserError(err, "failed to create user")
	}

	s.logger.Printf("User created: %s (%s)", user.Email, user.Role)
	return &user, nil
}

// UpdateUser applies the non-nil fields of input to an account.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, input model.UpdateUserInput) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, "failed to retrieve user")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validation.ValidatePersonName(name); err != nil {
			return nil, apperrors.ValidationFailed("name", err.Error())
		}
		user.Name = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, apperrors.ValidationFailed("email", err.Error())
		}
		user.Email = email
	}
	if input.Role != nil {
		if !model.ValidRole(*input.Role) {
			return nil, apperrors.ValidationFailed("role", fmt.Sprintf("unknown role %q", *input.Role))
		}
		user.Role = *input.Role
	}
	if input.Password != nil && *input.Password != "" {
		if err := validation.ValidatePassword(*input.Password); err != nil {
			return nil, apperrors.ValidationFailed("password", err.Error())
		}
		hash, err := auth.HashPassword(*input.Password, s.config.BcryptCost)
		if err != nil {
			return nil, apperrors.InternalError("failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now()
	if err := s.repo.UpdateUser(ctx, *user); err != nil {
		return nil, mapUserError(err, "failed to update user")
	}
	return user, nil
}

// DeleteUser removes an account. Users cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor, id uuid.UUID) error {
	if actor == id {
		return apperrors.ValidationFailed("id", "you cannot delete your own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return mapUserError(err, "failed to delete user")
	}
	s.logger.Printf("User deleted: %s", id)
	return nil
}

// SeedAdmin creates the bootstrap admin when no accounts exist yet.
func (s *UserService) SeedAdmin(ctx context.Context) (bool, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, apperrors.DatabaseError("failed to count users", err)
	}
	if count > 0 {
		return false, nil
	}
	if s.config.AdminPassword == "" {
		s.logger.Printf("No users exist and ADMIN_PASSWORD is empty; skipping admin seed")
		return false, nil
	}

	_, err = s.CreateUser(ctx, model.CreateUserInput{
		Name:     "Administrator",
		Email:    s.config.AdminEmail,
		Password: s.config.AdminPassword,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	s.logger.Printf("Seeded admin user %s", s.config.AdminEmail)
	return true, nil
}

// ForgotPassword issues a reset token and hands the link to the notifier.
// Unknown emails succeed silently.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return apperrors.ValidationFailed("email", err.Error())
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Printf("Password reset requested for unknown email %s", email)
			return nil
		}
		return apperrors.DatabaseError("failed to look up user", err)
	}

	token, err := s.resets.Issue(ctx, user.Email)
	if err != nil {
		return apperrors.InternalError("failed to issue reset token", err)
	}
	if s.notifier == nil {
		return apperrors.UnavailableError("password reset delivery")
	}

	msg := PasswordResetMessage{
		Email:     user.Email,
		Name:      user.Name,
		Link:      resetLink(s.config.ResetURL, token, user.Email),
		ExpiresAt: s.now().Add(s.resetTTL()),
	}
	if err := s.notifier.SendPasswordReset(ctx, msg); err != nil {
		return apperrors.ExternalServiceError("notification", err)
	}
	return nil
}

// ResetPassword replaces the password of the account bound to token.
func (s *UserService) ResetPassword(ctx context.Context, email, token, password string) error {
	email = normalizeEmail(email)
	if token == "" {
		return apperrors.ValidationFailed("token", "is required")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return apperrors.ValidationFailed("password", err.Error())
	}

	ok, err := s.resets.Consume(ctx, email, token)
	if err != nil {
		return apperrors.InternalError("failed to verify reset token", err)
	}
	if !ok {
		return apperrors.ValidationFailed("token", "invalid or expired reset token")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return mapUserError(err, "failed to look up user")
	}
	hash, err := auth.HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.repo.UpdateUser(ctx, *user); err != nil {
		return mapUserError(err, "failed to update password")
	}
	s.logger.Printf("Password reset for %s", user.Email)
	return nil
}

func (s *UserService) resetTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return auth.DefaultResetTokenTTL
}

func resetLink(base, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	if strings.Contains(base, "?") {
		return base + "&" + q.Encode()
	}
	return base + "?" + q.Encode()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapUserError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperrors.NotFoundError("user")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.DuplicateKey("email")
	}
	return apperrors.DatabaseError(message, err)
}
