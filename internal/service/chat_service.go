package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	app_errors "berean/backend/internal/errors"
	"berean/backend/internal/model"
	"berean/backend/internal/persona"
	"berean/backend/internal/repository"
	"berean/backend/internal/stream"
)

// ChatService owns single-persona conversations: it is the sole writer of the
// conversations slot and persists after every discrete mutation.
type ChatService struct {
	repo     repository.Repository
	registry *persona.Registry
	streams  stream.Streamer
	settings *SettingsService
}

// CreateMessageRequest is the structure for a new message request from the
// client. An empty ConversationID starts a new conversation.
type CreateMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	PersonaID      string `json:"persona_id"`
	Content        string `json:"content" validate:"required"`
}

func NewChatService(repo repository.Repository, registry *persona.Registry, streams stream.Streamer, settings *SettingsService) *ChatService {
	return &ChatService{repo: repo, registry: registry, streams: streams, settings: settings}
}

// ListConversations returns all conversations, most recently updated first.
func (s *ChatService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	conversations, err := s.repo.LoadConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load conversations: %w", err)
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// GetConversation retrieves one conversation with all its messages.
func (s *ChatService) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	conversations, err := s.repo.LoadConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load conversations: %w", err)
	}
	for i := range conversations {
		if conversations[i].ID == conversationID {
			return &conversations[i], nil
		}
	}
	return nil, fmt.Errorf("%w: conversation %q", app_errors.ErrNotFound, conversationID)
}

// DeleteConversation removes a conversation and persists the updated list.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationID string) error {
	conversations, err := s.repo.LoadConversations(ctx)
	if err != nil {
		return fmt.Errorf("could not load conversations: %w", err)
	}
	kept := conversations[:0]
	found := false
	for _, c := range conversations {
		if c.ID == conversationID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return fmt.Errorf("%w: conversation %q", app_errors.ErrNotFound, conversationID)
	}
	return s.repo.SaveConversations(ctx, kept)
}

// upsertConversation replaces the stored copy of conv, or prepends it when
// new, and saves the slot synchronously.
func (s *ChatService) upsertConversation(ctx context.Context, conv model.Conversation) error {
	conversations, err := s.repo.LoadConversations(ctx)
	if err != nil {
		return err
	}
	for i := range conversations {
		if conversations[i].ID == conv.ID {
			conversations[i] = conv
			return s.repo.SaveConversations(ctx, conversations)
		}
	}
	return s.repo.SaveConversations(ctx, append([]model.Conversation{conv}, conversations...))
}

// HandleNewMessage is the core single-chat flow: it appends the user message,
// streams the persona's answer through the relay, and appends the assistant
// message once the stream settles. Progress is pushed into streamChan, which
// is always closed before returning.
func (s *ChatService) HandleNewMessage(ctx context.Context, req *CreateMessageRequest, streamChan chan<- model.StreamResponse) {
	defer close(streamChan)

	var conv model.Conversation
	if req.ConversationID == "" {
		p, err := s.registry.Get(req.PersonaID)
		if err != nil {
			streamChan <- model.StreamResponse{Error: "Unknown persona"}
			return
		}
		now := time.Now()
		conv = model.Conversation{
			ID:        uuid.NewString(),
			Title:     deriveTitle(req.Content),
			PersonaID: p.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	} else {
		existing, err := s.GetConversation(ctx, req.ConversationID)
		if err != nil {
			streamChan <- model.StreamResponse{Error: "Could not find conversation"}
			return
		}
		conv = *existing
	}

	p, err := s.registry.Get(conv.PersonaID)
	if err != nil {
		streamChan <- model.StreamResponse{Error: "Unknown persona"}
		return
	}

	userMessage := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   req.Content,
		Timestamp: time.Now(),
	}
	conv.Messages = append(conv.Messages, userMessage)
	conv.UpdatedAt = time.Now()
	if err := s.upsertConversation(ctx, conv); err != nil {
		slog.Error("Failed to persist user message", "conversation_id", conv.ID, "error", err)
		streamChan <- model.StreamResponse{Error: "Could not save conversation"}
		return
	}

	// Tell the client which conversation this stream belongs to before the
	// first token arrives.
	streamChan <- model.StreamResponse{ConversationID: conv.ID}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		slog.Warn("Could not load stored credential, relying on server default", "error", err)
	}

	s.streams.Stream(ctx, p, conv.Messages, apiKey, stream.Callbacks{
		OnToken: func(token string) {
			streamChan <- model.StreamResponse{Text: token}
		},
		OnDone: func(fullText string) {
			assistantMessage := model.Message{
				ID:        uuid.NewString(),
				Role:      model.RoleAssistant,
				Content:   fullText,
				PersonaID: p.ID,
				Timestamp: time.Now(),
			}
			conv.Messages = append(conv.Messages, assistantMessage)
			conv.UpdatedAt = time.Now()
			if err := s.upsertConversation(ctx, conv); err != nil {
				slog.Error("Failed to save assistant message", "conversation_id", conv.ID, "error", err)
				streamChan <- model.StreamResponse{Error: "Could not save response"}
				return
			}
			streamChan <- model.StreamResponse{Done: true}
		},
		OnError: func(message string) {
			// Errors are display content for the client banner; the
			// conversation keeps only the user message.
			streamChan <- model.StreamResponse{Error: message}
		},
	})
}
