package repositories

import (
	"context"
	"sync"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/pkg/errors"
)

// MemoryFriendStore keeps friend requests in process. All exclusion happens
// under one mutex, which gives Insert and UpdateStatus the same atomicity the
// Postgres repository gets from its unique index and conditional update.
type MemoryFriendStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.FriendRequest
	ordered []*models.FriendRequest
}

func NewMemoryFriendStore() *MemoryFriendStore {
	return &MemoryFriendStore{
		byID: make(map[string]*models.FriendRequest),
	}
}

func (s *MemoryFriendStore) FindActiveBetween(ctx context.Context, a, b uint) (*models.FriendRequest, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if req := s.activeBetweenLocked(a, b); req != nil {
		clone := *req
		return &clone, nil
	}
	return nil, nil
}

func (s *MemoryFriendStore) Insert(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[req.ID]; exists {
		return nil, errors.New(errors.ErrCodeDuplicateRelationship, "friend request id already exists")
	}
	if req.IsActive() && s.activeBetweenLocked(req.RequesterID, req.TargetID) != nil {
		return nil, errors.New(errors.ErrCodeDuplicateRelationship, "friend request already exists")
	}

	stored := *req
	stored.PairLow, stored.PairHigh = models.OrderedPair(req.RequesterID, req.TargetID)
	s.byID[stored.ID] = &stored
	s.ordered = append(s.ordered, &stored)

	clone := stored
	return &clone, nil
}

func (s *MemoryFriendStore) FindByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (s *MemoryFriendStore) UpdateStatus(ctx context.Context, id, newStatus, expectedStatus string) (*models.FriendRequest, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok || req.Status != expectedStatus {
		return nil, nil
	}

	req.Status = newStatus
	req.UpdatedAt = nowUTC()

	clone := *req
	return &clone, nil
}

func (s *MemoryFriendStore) ListAccepted(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.list(ctx, func(r *models.FriendRequest) bool {
		return r.Status == models.FriendRequestStatusAccepted && r.Involves(userID)
	})
}

func (s *MemoryFriendStore) ListPendingForTarget(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.list(ctx, func(r *models.FriendRequest) bool {
		return r.Status == models.FriendRequestStatusPending && r.TargetID == userID
	})
}

func (s *MemoryFriendStore) list(ctx context.Context, keep func(*models.FriendRequest) bool) ([]models.FriendRequest, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.FriendRequest{}
	for _, req := range s.ordered {
		if keep(req) {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (s *MemoryFriendStore) activeBetweenLocked(a, b uint) *models.FriendRequest {
	low, high := models.OrderedPair(a, b)
	for _, req := range s.ordered {
		if req.PairLow == low && req.PairHigh == high && req.IsActive() {
			return req
		}
	}
	return nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "store call abandoned")
	}
	return nil
}
