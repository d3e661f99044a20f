package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"berean/backend/internal/model"
)

// redisRepository is the alternate store backend for deployments that already
// run Redis. Same slot semantics as the SQLite backend: whole-value reads and
// writes, empty on miss or corruption.
type redisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) Repository {
	return &redisRepository{rdb: rdb}
}

func (r *redisRepository) loadSlot(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(val), nil
}

func (r *redisRepository) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	raw, err := r.loadSlot(ctx, slotConversations)
	if err != nil {
		return nil, err
	}
	return decodeSlot[[]model.Conversation](raw, slotConversations), nil
}

func (r *redisRepository) SaveConversations(ctx context.Context, conversations []model.Conversation) error {
	value, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, slotConversations, value, 0).Err()
}

func (r *redisRepository) LoadComparisons(ctx context.Context) ([]model.ComparisonSession, error) {
	raw, err := r.loadSlot(ctx, slotComparisons)
	if err != nil {
		return nil, err
	}
	return decodeSlot[[]model.ComparisonSession](raw, slotComparisons), nil
}

func (r *redisRepository) SaveComparisons(ctx context.Context, comparisons []model.ComparisonSession) error {
	value, err := json.Marshal(comparisons)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, slotComparisons, value, 0).Err()
}

func (r *redisRepository) LoadAPIKey(ctx context.Context) (string, error) {
	raw, err := r.loadSlot(ctx, slotAPIKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *redisRepository) SaveAPIKey(ctx context.Context, key string) error {
	return r.rdb.Set(ctx, slotAPIKey, key, 0).Err()
}
