package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/internal/security"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/logger"
)

// UserStore persists accounts. Lookups return nil when nothing matches.
type UserStore interface {
	UserDirectory
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// UpdateProfileInput carries the optional fields of a profile update.
type UpdateProfileInput struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdatedProfile is what a profile update reports back.
type UpdatedProfile struct {
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthService struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users UserStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates an account and returns a signed token for it.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, *models.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return "", nil, err
	}
	if err := validatePassword(password); err != nil {
		return "", nil, err
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if existing != nil {
		return "", nil, errors.New(errors.ErrCodeAlreadyExists, "username already exists")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to hash password")
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return token, user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = security.SanitizeUsername(username)
	if username == "" || password == "" {
		return "", errors.New(errors.ErrCodeValidation, "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		logger.Warn("Failed login attempt", "username", username)
		return "", errors.New(errors.ErrCodeUnauthorized, "invalid credentials")
	}

	return s.issueToken(user)
}

// Authenticate verifies a bearer token and returns its claims.
func (s *AuthService) Authenticate(token string) (*security.Claims, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "missing token")
	}
	claims, err := security.ValidateJWT(token, s.jwtSecret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}

	profile := user.ToProfile()
	return &profile, nil
}

// UpdateMe changes the caller's username and/or password and returns the
// persisted values.
func (s *AuthService) UpdateMe(ctx context.Context, userID uint, input UpdateProfileInput) (*UpdatedProfile, error) {
	if input.Username == nil && input.Password == nil {
		return nil, errors.New(errors.ErrCodeValidation, "nothing to update")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}

	if input.Username != nil {
		username, err := normalizeUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		if username != user.Username {
			taken, err := s.users.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken != nil && taken.ID != user.ID {
				return nil, errors.New(errors.ErrCodeAlreadyExists, "username is already taken")
			}
		}
		user.Username = username
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := security.HashPassword(*input.Password)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User profile updated", "user_id", user.ID)
	return &UpdatedProfile{Username: user.Username, UpdatedAt: user.UpdatedAt}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	token, err := security.GenerateJWT(user.ID, user.Username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign token")
	}
	return token, nil
}

func normalizeUsername(raw string) (string, error) {
	username := security.SanitizeUsername(raw)
	if username == "" {
		return "", errors.New(errors.ErrCodeValidation, "username is required")
	}
	if utf8.RuneCountInString(username) > models.UsernameMaxLength {
		return "", errors.New(errors.ErrCodeValidation, "username is too long")
	}
	return username, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < models.PasswordMinLength {
		return errors.New(errors.ErrCodeValidation, "password must be at least 6 characters")
	}
	return nil
}
