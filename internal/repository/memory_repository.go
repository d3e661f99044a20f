package repository

import (
	"context"
	"encoding/json"
	"sync"

	"berean/backend/internal/model"
)

// memoryRepository keeps the three slots in process memory. Used by tests and
// by the "memory" storage backend for throwaway deployments.
type memoryRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryRepository() Repository {
	return &memoryRepository{slots: make(map[string][]byte)}
}

func (r *memoryRepository) loadSlot(key string) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[key]
}

func (r *memoryRepository) saveSlot(key string, value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = value
}

func (r *memoryRepository) LoadConversations(_ context.Context) ([]model.Conversation, error) {
	return decodeSlot[[]model.Conversation](r.loadSlot(slotConversations), slotConversations), nil
}

func (r *memoryRepository) SaveConversations(_ context.Context, conversations []model.Conversation) error {
	value, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	r.saveSlot(slotConversations, value)
	return nil
}

func (r *memoryRepository) LoadComparisons(_ context.Context) ([]model.ComparisonSession, error) {
	return decodeSlot[[]model.ComparisonSession](r.loadSlot(slotComparisons), slotComparisons), nil
}

func (r *memoryRepository) SaveComparisons(_ context.Context, comparisons []model.ComparisonSession) error {
	value, err := json.Marshal(comparisons)
	if err != nil {
		return err
	}
	r.saveSlot(slotComparisons, value)
	return nil
}

func (r *memoryRepository) LoadAPIKey(_ context.Context) (string, error) {
	return string(r.loadSlot(slotAPIKey)), nil
}

func (r *memoryRepository) SaveAPIKey(_ context.Context, key string) error {
	r.saveSlot(slotAPIKey, []byte(key))
	return nil
}
