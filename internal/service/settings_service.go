package service

import (
	"context"
	"fmt"

	"berean/backend/internal/config"
	"berean/backend/internal/repository"
)

// Settings is the client-facing settings document. The credential itself is
// write-only: Save accepts it, Get only reports whether one is stored.
type Settings struct {
	APIKey    string `json:"api_key,omitempty"`
	APIKeySet bool   `json:"api_key_set"`
	Model     string `json:"model"`
}

// SettingsService manages the credential slot. The key is inlined into
// upstream requests and never logged or echoed back.
type SettingsService struct {
	repo repository.Repository
	cfg  *config.Config
}

func NewSettingsService(repo repository.Repository, cfg *config.Config) *SettingsService {
	return &SettingsService{repo: repo, cfg: cfg}
}

// Get reports the current settings without exposing the stored credential.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	key, err := s.repo.LoadAPIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load credential: %w", err)
	}
	return &Settings{
		APIKeySet: key != "" || s.cfg.AnthropicAPIKey != "",
		Model:     s.cfg.DefaultModel,
	}, nil
}

// Save stores the submitted credential. An empty key clears the slot, which
// falls the application back to the server-side default, if any.
func (s *SettingsService) Save(ctx context.Context, settings *Settings) error {
	return s.repo.SaveAPIKey(ctx, settings.APIKey)
}

// APIKey resolves the credential used for outbound streams: the stored key
// when present, otherwise the server-side default.
func (s *SettingsService) APIKey(ctx context.Context) (string, error) {
	key, err := s.repo.LoadAPIKey(ctx)
	if err != nil {
		return s.cfg.AnthropicAPIKey, err
	}
	if key == "" {
		return s.cfg.AnthropicAPIKey, nil
	}
	return key, nil
}
