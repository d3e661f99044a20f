package interfaces

import (
	"context"

	"berean/backend/internal/model"
	"berean/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows
// for decoupling (e.g., API layer from Service layer) and easier testing via
// mocking.

// ChatService defines the contract for single-persona conversation logic.
type ChatService interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	HandleNewMessage(ctx context.Context, req *service.CreateMessageRequest, streamChan chan<- model.StreamResponse)
}

// CompareService defines the contract for comparison orchestration.
type CompareService interface {
	ListComparisons(ctx context.Context) ([]model.ComparisonSession, error)
	GetComparison(ctx context.Context, comparisonID string) (*model.ComparisonSession, error)
	DeleteComparison(ctx context.Context, comparisonID string) error
	HandleCompare(ctx context.Context, req *service.CompareRequest, eventChan chan<- model.CompareEvent)
}

// SettingsService defines the contract for credential management.
type SettingsService interface {
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}
