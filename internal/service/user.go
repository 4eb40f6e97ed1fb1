package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/auth"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	redisrepo "github.com/Shazneenislam/dhakaagro-sub000/internal/repository/redis"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UserService implements account and auth operations. Refresh tokens are
// backed by sessions in Redis; refreshing rotates both the token and its
// session.
type UserService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwtManager *auth.JWTManager
	producer   *event.Producer
	logger     *slog.Logger
}

// NewUserService creates a user service.
func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		producer:   producer,
		logger:     logger,
	}
}

// Register creates a new account, hashes the password, and issues tokens.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.producer.PublishUserRegistered(ctx, event.UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates with email and password, returning tokens.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Refresh validates a refresh token against its session and rotates the
// pair. The old session is removed, so a token replays at most once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokenHash := redisrepo.HashToken(refreshToken)
	userID, err := s.sessions.UserID(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, apperrors.Unauthorized("refresh token does not match session")
	}

	if err := s.sessions.Delete(ctx, tokenHash); err != nil {
		s.logger.WarnContext(ctx, "failed to delete rotated session",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))

	return tokens, nil
}

// Logout removes the refresh session for the given token. Unknown tokens
// are ignored; logout is idempotent.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, redisrepo.HashToken(refreshToken))
}

// Me returns the authenticated user's account.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) issueTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, redisrepo.HashToken(refreshToken), user.ID, s.jwtManager.RefreshExpiry()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}
	return nil
}
