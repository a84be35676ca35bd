package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stepbuddy/backend/src/domain"
)

// challengeCacheTTL bounds staleness for read-side consumers; every
// mutation invalidates the entry explicitly anyway.
const challengeCacheTTL = 5 * time.Minute

// ChallengeCacheRepository handles Redis caching of challenge records for
// the read endpoints.
type ChallengeCacheRepository struct {
	redis     *redis.Client
	keyPrefix string
}

func NewChallengeCacheRepository(redis *redis.Client, keyPrefix string) *ChallengeCacheRepository {
	return &ChallengeCacheRepository{
		redis:     redis,
		keyPrefix: keyPrefix,
	}
}

func (r *ChallengeCacheRepository) key(challengeID int64) string {
	return fmt.Sprintf("%s:%d", r.keyPrefix, challengeID)
}

// GetChallenge retrieves a cached challenge record. A cache miss returns
// (nil, nil); the caller falls back to the store.
func (r *ChallengeCacheRepository) GetChallenge(ctx context.Context, challengeID int64) (*domain.Challenge, error) {
	data, err := r.redis.Get(ctx, r.key(challengeID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var challenge domain.Challenge
	if err := json.Unmarshal([]byte(data), &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached challenge: %w", err)
	}
	return &challenge, nil
}

// SetChallenge stores a challenge record in the cache.
func (r *ChallengeCacheRepository) SetChallenge(ctx context.Context, challenge *domain.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	return r.redis.Set(ctx, r.key(challenge.ID), data, challengeCacheTTL).Err()
}

// InvalidateChallenge removes a challenge record from the cache. Called
// after every mutation of the record.
func (r *ChallengeCacheRepository) InvalidateChallenge(ctx context.Context, challengeID int64) error {
	return r.redis.Del(ctx, r.key(challengeID)).Err()
}
