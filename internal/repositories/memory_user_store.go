package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/pkg/errors"
)

// MemoryUserStore is the in-process counterpart of UserRepository.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		nextID: 1,
		users:  make(map[uint]*models.User),
	}
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := user.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUsernameLocked(user.Username) != nil {
		return errors.New(errors.ErrCodeAlreadyExists, "username already exists")
	}

	now := nowUTC()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++

	stored := *user
	s.users[stored.ID] = &stored
	return nil
}

func (s *MemoryUserStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.byUsernameLocked(username)
	if user == nil {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := user.BeforeSave(nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if other := s.byUsernameLocked(user.Username); other != nil && other.ID != user.ID {
		return errors.New(errors.ErrCodeAlreadyExists, "username is already taken")
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = nowUTC()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *MemoryUserStore) UserExists(ctx context.Context, id uint) (bool, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *MemoryUserStore) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (s *MemoryUserStore) byUsernameLocked(username string) *models.User {
	username = strings.TrimSpace(username)
	for _, user := range s.users {
		if user.Username == username {
			return user
		}
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
