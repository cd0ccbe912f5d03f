package services

import (
	"context"
	"time"

	"github.com/mroshb/friendgraph/internal/metrics"
	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/logger"
)

// FriendStore persists friend requests. Implementations own atomicity:
// Insert must reject a second active record for the same unordered pair,
// and UpdateStatus must only apply when the current status equals expected.
type FriendStore interface {
	// FindActiveBetween returns the pending or accepted record between a and
	// b in either direction, or nil when there is none.
	FindActiveBetween(ctx context.Context, a, b uint) (*models.FriendRequest, error)
	Insert(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	// FindByID returns nil when the id is unknown.
	FindByID(ctx context.Context, id string) (*models.FriendRequest, error)
	// UpdateStatus returns nil when the id is unknown or its status is not expected.
	UpdateStatus(ctx context.Context, id, newStatus, expectedStatus string) (*models.FriendRequest, error)
	ListAccepted(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListPendingForTarget(ctx context.Context, userID uint) ([]models.FriendRequest, error)
}

// UserDirectory is the identity side the relationship engine depends on.
type UserDirectory interface {
	UserExists(ctx context.Context, id uint) (bool, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

const (
	OpCreateFriendRequest      = "create_friend_request"
	OpGetFriends               = "get_friends"
	OpGetPendingFriendRequests = "get_pending_friend_requests"
	OpRespondToFriendRequest   = "respond_to_friend_request"
)

type FriendService struct {
	store FriendStore
	users UserDirectory
	now   func() time.Time
}

func NewFriendService(store FriendStore, users UserDirectory) *FriendService {
	return &FriendService{
		store: store,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateFriendRequest records a pending request from callerID to targetID.
func (s *FriendService) CreateFriendRequest(ctx context.Context, callerID, targetID uint) (req *models.FriendRequest, err error) {
	defer func() { metrics.ObserveFriendOperation(OpCreateFriendRequest, err) }()

	if targetID == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTarget, "target user not found")
	}
	if targetID == callerID {
		return nil, errors.New(errors.ErrCodeInvalidTarget, "cannot send a friend request to yourself")
	}

	exists, err := s.users.UserExists(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New(errors.ErrCodeInvalidTarget, "target user not found")
	}

	existing, err := s.store.FindActiveBetween(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, duplicateError(existing)
	}

	// The store re-checks the pair atomically; a concurrent request that
	// slipped past the read above surfaces here as a duplicate.
	created, err := s.store.Insert(ctx, models.NewFriendRequest(callerID, targetID, s.now()))
	if err != nil {
		return nil, err
	}

	logger.Info("Friend request created",
		"request_id", created.ID, "requester_id", callerID, "target_id", targetID)
	return created, nil
}

// GetFriends lists the counterparties of every accepted record touching callerID.
func (s *FriendService) GetFriends(ctx context.Context, callerID uint) (friends []models.FriendSummary, err error) {
	defer func() { metrics.ObserveFriendOperation(OpGetFriends, err) }()

	records, err := s.store.ListAccepted(ctx, callerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(records))
	seen := make(map[uint]struct{}, len(records))
	for i := range records {
		other := records[i].Counterparty(callerID)
		if other == callerID {
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}

	usernames, err := s.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends = make([]models.FriendSummary, 0, len(ids))
	for _, id := range ids {
		friends = append(friends, models.FriendSummary{ID: id, Username: usernames[id]})
	}
	return friends, nil
}

// GetPendingFriendRequests lists pending requests received by callerID.
func (s *FriendService) GetPendingFriendRequests(ctx context.Context, callerID uint) (pending []models.PendingFriendRequest, err error) {
	defer func() { metrics.ObserveFriendOperation(OpGetPendingFriendRequests, err) }()

	records, err := s.store.ListPendingForTarget(ctx, callerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].RequesterID)
	}

	usernames, err := s.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	pending = make([]models.PendingFriendRequest, 0, len(records))
	for i := range records {
		pending = append(pending, models.PendingFriendRequest{
			ID:                records[i].ID,
			RequesterID:       records[i].RequesterID,
			RequesterUsername: usernames[records[i].RequesterID],
			CreatedAt:         records[i].CreatedAt,
		})
	}
	return pending, nil
}

// RespondToFriendRequest accepts or rejects a pending request addressed to callerID.
func (s *FriendService) RespondToFriendRequest(ctx context.Context, callerID uint, requestID, action string) (updated *models.FriendRequest, err error) {
	defer func() { metrics.ObserveFriendOperation(OpRespondToFriendRequest, err) }()

	newStatus, ok := models.StatusForAction(action)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidAction, "action must be 'accept' or 'reject'")
	}

	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "friend request not found")
	}
	if req.TargetID != callerID {
		return nil, errors.New(errors.ErrCodeForbidden, "only the recipient can respond to this friend request")
	}
	if req.Status != models.FriendRequestStatusPending {
		return nil, errors.New(errors.ErrCodeInvalidState, "friend request has already been "+req.Status)
	}

	updated, err = s.store.UpdateStatus(ctx, requestID, newStatus, models.FriendRequestStatusPending)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost a race with another response between the read and the update.
		current, err := s.store.FindByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, errors.New(errors.ErrCodeNotFound, "friend request not found")
		}
		return nil, errors.New(errors.ErrCodeInvalidState, "friend request has already been "+current.Status)
	}

	logger.Info("Friend request answered",
		"request_id", updated.ID, "target_id", callerID, "status", updated.Status)
	return updated, nil
}

func (s *FriendService) usernames(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		names[users[i].ID] = users[i].Username
	}
	return names, nil
}

func duplicateError(existing *models.FriendRequest) error {
	if existing.Status == models.FriendRequestStatusAccepted {
		return errors.New(errors.ErrCodeDuplicateRelationship, "already friends")
	}
	return errors.New(errors.ErrCodeDuplicateRelationship, "friend request already exists")
}
