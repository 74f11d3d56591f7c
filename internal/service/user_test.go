package service

import (
	"context"
	"errors"
	"it-asset-tracker/internal/auth"
	"it-asset-tracker/internal/model"
	"it-asset-tracker/internal/repository"
	apperrors "it-asset-tracker/pkg/errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	err   error
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[uuid.UUID]model.User)}
}

func (r *memoryUserRepository) CreateUser(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryUserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := []model.User{}
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r *memoryUserRepository) UpdateUser(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) CountUsers(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.users), nil
}

func createTestUserService(config UserConfig) (*UserService, *memoryUserRepository, *recordingNotifier) {
	repo := newMemoryUserRepository()
	notifier := &recordingNotifier{}
	tokens := auth.NewTokenManager(testJWTSecret, time.Hour)
	resets := auth.NewMemoryResetTokenStore(time.Hour, nil)
	if config.BcryptCost == 0 {
		config.BcryptCost = 4
	}
	if config.ResetURL == "" {
		config.ResetURL = "http://localhost:3000/reset-password"
	}
	svc := NewUserService(repo, tokens, resets, notifier, config, quietLogger())
	return svc, repo, notifier
}

func TestCreateUserAndLogin(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{})

	user, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name:     "Jane Doe",
		Email:    " Jane@Example.com ",
		Password: "s3cret!",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, model.RoleViewer, user.Role)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	result, err := svc.Login(context.Background(), "JANE@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := auth.NewTokenManager(testJWTSecret, time.Hour).Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, claims.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{})
	_, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "s3cret!",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "jane@example.com", "wrong-password")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCodeUnauthorized))

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret!")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCodeUnauthorized))
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{})

	tests := []struct {
		name  string
		input model.CreateUserInput
		field string
	}{
		{"missing name", model.CreateUserInput{Email: "a@example.com", Password: "secret1"}, "name"},
		{"bad email", model.CreateUserInput{Name: "Jane Doe", Email: "nope", Password: "secret1"}, "email"},
		{"short password", model.CreateUserInput{Name: "Jane Doe", Email: "a@example.com", Password: "123"}, "password"},
		{"unknown role", model.CreateUserInput{Name: "Jane Doe", Email: "a@example.com", Password: "secret1", Role: "Root"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.input)
			requireField(t, err, apperrors.ErrorCodeValidation, tt.field)
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{})
	input := model.CreateUserInput{Name: "Jane Doe", Email: "jane@example.com", Password: "secret1"}

	_, err := svc.CreateUser(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.CreateUser(context.Background(), input)
	requireField(t, err, apperrors.ErrorCodeDuplicateKey, "email")
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{})
	user, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	role := model.RoleEditor
	updated, err := svc.UpdateUser(context.Background(), user.ID, model.UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, updated.Role)
	assert.Equal(t, user.PasswordHash, updated.PasswordHash)

	bad := "Superuser"
	_, err = svc.UpdateUser(context.Background(), user.ID, model.UpdateUserInput{Role: &bad})
	requireField(t, err, apperrors.ErrorCodeValidation, "role")

	_, err = svc.UpdateUser(context.Background(), uuid.New(), model.UpdateUserInput{Role: &role})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCodeNotFound))
}

func TestDeleteUser(t *testing.T) {
	svc, repo, _ := createTestUserService(UserConfig{})
	admin, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Admin User", Email: "admin@example.com", Password: "secret1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)
	other, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	err = svc.DeleteUser(context.Background(), admin.ID, admin.ID)
	requireField(t, err, apperrors.ErrorCodeValidation, "id")

	require.NoError(t, svc.DeleteUser(context.Background(), admin.ID, other.ID))
	count, _ := repo.CountUsers(context.Background())
	assert.Equal(t, 1, count)
}

func TestSeedAdmin(t *testing.T) {
	svc, repo, _ := createTestUserService(UserConfig{AdminEmail: "admin@example.com", AdminPassword: "bootstrap1"})

	seeded, err := svc.SeedAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	admin, err := repo.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	seeded, err = svc.SeedAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestSeedAdmin_NoPassword(t *testing.T) {
	svc, _, _ := createTestUserService(UserConfig{AdminEmail: "admin@example.com"})

	seeded, err := svc.SeedAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestSeedAdmin_CountFails(t *testing.T) {
	svc, repo, _ := createTestUserService(UserConfig{AdminEmail: "admin@example.com", AdminPassword: "bootstrap1"})
	repo.err = errors.New("connection refused")

	_, err := svc.SeedAdmin(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCodeDatabase))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, notifier := createTestUserService(UserConfig{})
	_, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "jane@example.com"))
	require.Len(t, notifier.resets, 1)
	reset := notifier.resets[0]
	assert.Equal(t, "jane@example.com", reset.Email)

	link, err := url.Parse(reset.Link)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)
	assert.Equal(t, "jane@example.com", link.Query().Get("email"))

	require.NoError(t, svc.ResetPassword(context.Background(), "jane@example.com", token, "brandnew1"))

	_, err = svc.Login(context.Background(), "jane@example.com", "brandnew1")
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), "jane@example.com", token, "another1")
	requireField(t, err, apperrors.ErrorCodeValidation, "token")
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	svc, _, notifier := createTestUserService(UserConfig{})

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, notifier.resets)
}

func TestForgotPassword_NoNotifier(t *testing.T) {
	repo := newMemoryUserRepository()
	svc := NewUserService(repo, auth.NewTokenManager(testJWTSecret, time.Hour),
		auth.NewMemoryResetTokenStore(time.Hour, nil), nil, UserConfig{BcryptCost: 4}, quietLogger())
	_, err := svc.CreateUser(context.Background(), model.CreateUserInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	err = svc.ForgotPassword(context.Background(), "jane@example.com")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCodeUnavailable))
}
