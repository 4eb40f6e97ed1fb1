package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/auth"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	redisrepo "github.com/Shazneenislam/dhakaagro-sub000/internal/repository/redis"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

const testJWTSecret = "test-secret-at-least-32-characters-long"

func newUserService(store *fakeUserStore, sessions *fakeSessionRepository) *UserService {
	jwtManager := auth.NewJWTManager(testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	return NewUserService(store, sessions, jwtManager, newTestProducer(), newTestLogger())
}

func TestRegister(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionRepository()
	svc := newUserService(store, sessions)

	user, tokens, err := svc.Register(context.Background(), RegisterInput{
		Email:    "rahim@example.com",
		Password: "Str0ngPass",
		Name:     "Rahim Uddin",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Str0ngPass")))

	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// A refresh session backs the issued token.
	userID, err := sessions.UserID(context.Background(), redisrepo.HashToken(tokens.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, newFakeSessionRepository())
	ctx := context.Background()

	input := RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"}
	_, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newUserService(newFakeUserStore(), newFakeSessionRepository())
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "str0ngpass"},
		{"no lowercase", "STR0NGPASS"},
		{"no digit", "StrongPass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, RegisterInput{
				Email:    "x@example.com",
				Password: tt.password,
				Name:     "X",
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionRepository()
	svc := newUserService(store, sessions)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	user, tokens, err := svc.Login(ctx, LoginInput{Email: "rahim@example.com", Password: "Str0ngPass"})
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, newFakeSessionRepository())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	// Wrong password and unknown email produce the same error.
	_, _, err = svc.Login(ctx, LoginInput{Email: "rahim@example.com", Password: "WrongPass1"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Str0ngPass"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, newFakeSessionRepository())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, store.Update(ctx, user))

	_, _, err = svc.Login(ctx, LoginInput{Email: "rahim@example.com", Password: "Str0ngPass"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_RotatesSession(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionRepository()
	svc := newUserService(store, sessions)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old token's session is gone; replaying it fails.
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// The rotated token still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newUserService(newFakeUserStore(), newFakeSessionRepository())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	store := newFakeUserStore()
	sessions := newFakeSessionRepository()
	svc := newUserService(store, sessions)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Logging out again, or with no token, is a no-op.
	assert.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestMe(t *testing.T) {
	store := newFakeUserStore()
	svc := newUserService(store, newFakeSessionRepository())
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, RegisterInput{Email: "rahim@example.com", Password: "Str0ngPass", Name: "Rahim"})
	require.NoError(t, err)

	user, err := svc.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Email, user.Email)

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
