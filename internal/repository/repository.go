package repository

import (
	"context"

	"berean/backend/internal/model"
)

// Repository is the durable session store: three independent opaque slots,
// each loaded and saved whole. Mutation logic lives in the service layer; a
// save fully replaces the previous slot value, which keeps persistence
// synchronous and atomic per operation.
//
// A missing or corrupted slot degrades to its empty value rather than an
// error, so a damaged store never takes the application down.
type Repository interface {
	LoadConversations(ctx context.Context) ([]model.Conversation, error)
	SaveConversations(ctx context.Context, conversations []model.Conversation) error

	LoadComparisons(ctx context.Context) ([]model.ComparisonSession, error)
	SaveComparisons(ctx context.Context, comparisons []model.ComparisonSession) error

	LoadAPIKey(ctx context.Context) (string, error)
	SaveAPIKey(ctx context.Context, key string) error
}

// Slot keys. Kept stable so an export of the browser-era local storage can be
// imported verbatim.
const (
	slotConversations = "berean_chats"
	slotComparisons   = "berean_compare_chats"
	slotAPIKey        = "berean_api_key"
)
