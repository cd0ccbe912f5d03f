package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Create(user).Error
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(err, errors.ErrCodeAlreadyExists, "username already exists")
	case stderrors.Is(err, gorm.ErrInvalidData):
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid user")
	default:
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create user")
	}
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	result := db.First(&user, id)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get user")
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	result := db.Where("username = ?", username).First(&user)

	if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get user")
	}

	return &user, nil
}

// UpdateUser writes username and password hash and reloads the persisted row
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	db, cancel := r.session(ctx)
	defer cancel()

	result := db.Model(user).
		Clauses(clause.Returning{}).
		Select("username", "password_hash", "updated_at").
		Updates(user)

	switch {
	case stderrors.Is(result.Error, gorm.ErrDuplicatedKey):
		return errors.Wrap(result.Error, errors.ErrCodeAlreadyExists, "username is already taken")
	case stderrors.Is(result.Error, gorm.ErrInvalidData):
		return errors.Wrap(result.Error, errors.ErrCodeValidation, "invalid user")
	case result.Error != nil:
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update user")
	case result.RowsAffected == 0:
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}

	return nil
}

// UserExists checks if a user exists by ID
func (r *UserRepository) UserExists(ctx context.Context, id uint) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var count int64
	result := db.Model(&models.User{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to check user existence")
	}
	return count > 0, nil
}

// GetUsersByIDs retrieves the users matching ids; unknown ids are skipped
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	db, cancel := r.session(ctx)
	defer cancel()

	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to get users")
	}
	return users, nil
}

func (r *UserRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}
