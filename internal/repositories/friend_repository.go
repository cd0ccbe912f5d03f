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

// FriendRepository is the Postgres-backed friend request store. The partial
// unique index on (pair_low, pair_high) makes Insert atomic with respect to
// the active-pair check; UpdateStatus is a single conditional UPDATE.
type FriendRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewFriendRepository(db *gorm.DB, timeout time.Duration) *FriendRepository {
	return &FriendRepository{db: db, timeout: timeout}
}

// FindActiveBetween returns the pending or accepted request between two users
func (r *FriendRepository) FindActiveBetween(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	low, high := models.OrderedPair(a, b)

	var existing models.FriendRequest
	err := db.Where("pair_low = ? AND pair_high = ? AND status IN ?",
		low, high, []string{models.FriendRequestStatusPending, models.FriendRequestStatusAccepted},
	).First(&existing).Error

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to check existing friendship")
	}

	return &existing, nil
}

// Insert creates a new friend request
func (r *FriendRepository) Insert(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	err := db.Create(req).Error
	switch {
	case err == nil:
		return req, nil
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return nil, errors.Wrap(err, errors.ErrCodeDuplicateRelationship, "friend request already exists")
	case stderrors.Is(err, gorm.ErrInvalidData):
		return nil, errors.Wrap(err, errors.ErrCodeInvalidTarget, "invalid friend request")
	default:
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create friend request")
	}
}

// FindByID retrieves a friend request by ID
func (r *FriendRepository) FindByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var req models.FriendRequest
	err := db.Where("id = ?", id).First(&req).Error

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to get friend request")
	}

	return &req, nil
}

// UpdateStatus moves a request to newStatus only if it is still in expectedStatus
func (r *FriendRepository) UpdateStatus(ctx context.Context, id, newStatus, expectedStatus string) (*models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var updated []models.FriendRequest
	result := db.Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"updated_at": nowUTC(),
		})

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update friend request")
	}

	if result.RowsAffected == 0 || len(updated) == 0 {
		return nil, nil
	}

	return &updated[0], nil
}

// ListAccepted retrieves accepted requests where the user is either party
func (r *FriendRepository) ListAccepted(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var requests []models.FriendRequest
	err := db.Where("(requester_id = ? OR target_id = ?) AND status = ?",
		userID, userID, models.FriendRequestStatusAccepted).
		Order("created_at").
		Find(&requests).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to get friends")
	}

	return requests, nil
}

// ListPendingForTarget retrieves pending requests received by a user
func (r *FriendRepository) ListPendingForTarget(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var requests []models.FriendRequest
	err := db.Where("target_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at").
		Find(&requests).Error

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to get pending requests")
	}

	return requests, nil
}

func (r *FriendRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}
