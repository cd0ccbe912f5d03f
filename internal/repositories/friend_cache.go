package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mroshb/friendgraph/internal/models"
	"github.com/mroshb/friendgraph/internal/services"
	"github.com/mroshb/friendgraph/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	friendsCacheKeyPrefix = "friendgraph:friends:"
	friendsGenKeyPrefix   = "friendgraph:friends:gen:"

	// generationTTL outlives any cache fill so a bumped counter is still
	// visible to a reader that loaded before the bump.
	generationTTL = 24 * time.Hour
)

var errStaleFill = stderrors.New("friends cache generation changed")

// CachedFriendStore caches ListAccepted results in Redis. Writes go straight
// to the wrapped store; a successful status change bumps both parties'
// generation counters and drops their keys. A fill is only written if the
// caller's generation is unchanged since the load started.
// Redis failures are logged and fall through to the wrapped store.
type CachedFriendStore struct {
	services.FriendStore
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedFriendStore(store services.FriendStore, rdb *redis.Client, ttl time.Duration) *CachedFriendStore {
	return &CachedFriendStore{
		FriendStore: store,
		rdb:         rdb,
		ttl:         ttl,
	}
}

func FriendsCacheKey(userID uint) string {
	return fmt.Sprintf("%s%d", friendsCacheKeyPrefix, userID)
}

func friendsGenKey(userID uint) string {
	return fmt.Sprintf("%s%d", friendsGenKeyPrefix, userID)
}

func (s *CachedFriendStore) ListAccepted(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	key := FriendsCacheKey(userID)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.FriendRequest
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		logger.Warn("Discarding unreadable friends cache entry", "key", key)
	case err != redis.Nil:
		logger.Warn("Friends cache read failed", "key", key, "error", err)
	}

	genKey := friendsGenKey(userID)
	gen, genErr := s.rdb.Get(ctx, genKey).Int64()
	if genErr != nil && genErr != redis.Nil {
		return s.FriendStore.ListAccepted(ctx, userID)
	}

	records, err := s.FriendStore.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(records); jsonErr == nil {
		s.fill(ctx, key, genKey, gen, payload)
	}
	return records, nil
}

// fill stores payload under key unless genKey moved past gen.
func (s *CachedFriendStore) fill(ctx context.Context, key, genKey string, gen int64, payload []byte) {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case stderrors.Is(err, errStaleFill), err == redis.TxFailedErr:
		logger.Debug("Skipped stale friends cache fill", "key", key)
	default:
		logger.Warn("Friends cache write failed", "key", key, "error", err)
	}
}

func (s *CachedFriendStore) Insert(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	created, err := s.FriendStore.Insert(ctx, req)
	if err != nil {
		return nil, err
	}
	if created.Status == models.FriendRequestStatusAccepted {
		s.invalidate(ctx, created.RequesterID, created.TargetID)
	}
	return created, nil
}

func (s *CachedFriendStore) UpdateStatus(ctx context.Context, id, newStatus, expectedStatus string) (*models.FriendRequest, error) {
	updated, err := s.FriendStore.UpdateStatus(ctx, id, newStatus, expectedStatus)
	if err != nil || updated == nil {
		return updated, err
	}
	s.invalidate(ctx, updated.RequesterID, updated.TargetID)
	return updated, nil
}

func (s *CachedFriendStore) invalidate(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			genKey := friendsGenKey(id)
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, generationTTL)
			keys = append(keys, FriendsCacheKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Warn("Friends cache invalidation failed", "keys", keys, "error", err)
	}
}
