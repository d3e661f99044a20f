package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	app_errors "berean/backend/internal/errors"
	"berean/backend/internal/model"
	"berean/backend/internal/persona"
	"berean/backend/internal/repository"
	"berean/backend/internal/stream"
)

// CompareService fans a single question out to several personas at once and
// settles the results into one comparison session. Each persona's stream is
// fully independent: its tokens arrive in its own order, and its failure never
// aborts the siblings.
type CompareService struct {
	repo     repository.Repository
	registry *persona.Registry
	streams  stream.Streamer
	settings *SettingsService
}

// CompareRequest is the structure for a comparison dispatch from the client.
type CompareRequest struct {
	Question   string   `json:"question" validate:"required"`
	PersonaIDs []string `json:"persona_ids" validate:"required,min=2"`
}

// compareResult is one persona's slot. Each streaming goroutine owns exactly
// one slot; slots are merged only after the barrier, so no locking is needed.
type compareResult struct {
	answer string
	done   bool
}

func NewCompareService(repo repository.Repository, registry *persona.Registry, streams stream.Streamer, settings *SettingsService) *CompareService {
	return &CompareService{repo: repo, registry: registry, streams: streams, settings: settings}
}

// ListComparisons returns all settled comparison sessions, newest first.
func (s *CompareService) ListComparisons(ctx context.Context) ([]model.ComparisonSession, error) {
	comparisons, err := s.repo.LoadComparisons(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load comparisons: %w", err)
	}
	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].UpdatedAt.After(comparisons[j].UpdatedAt)
	})
	return comparisons, nil
}

// GetComparison retrieves one settled comparison session.
func (s *CompareService) GetComparison(ctx context.Context, comparisonID string) (*model.ComparisonSession, error) {
	comparisons, err := s.repo.LoadComparisons(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load comparisons: %w", err)
	}
	for i := range comparisons {
		if comparisons[i].ID == comparisonID {
			return &comparisons[i], nil
		}
	}
	return nil, fmt.Errorf("%w: comparison %q", app_errors.ErrNotFound, comparisonID)
}

// DeleteComparison removes a comparison session and persists the updated list.
func (s *CompareService) DeleteComparison(ctx context.Context, comparisonID string) error {
	comparisons, err := s.repo.LoadComparisons(ctx)
	if err != nil {
		return fmt.Errorf("could not load comparisons: %w", err)
	}
	kept := comparisons[:0]
	found := false
	for _, c := range comparisons {
		if c.ID == comparisonID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return fmt.Errorf("%w: comparison %q", app_errors.ErrNotFound, comparisonID)
	}
	return s.repo.SaveComparisons(ctx, kept)
}

// HandleCompare dispatches one question to every selected persona, relays
// per-persona progress events into eventChan, and persists the session once
// every stream has finished. A cancelled context aborts all streams and
// persists nothing. eventChan is always closed before returning.
func (s *CompareService) HandleCompare(ctx context.Context, req *CompareRequest, eventChan chan<- model.CompareEvent) {
	defer close(eventChan)

	question := strings.TrimSpace(req.Question)
	if question == "" || len(req.PersonaIDs) < 2 {
		eventChan <- model.CompareEvent{Error: "A question and at least two personas are required"}
		return
	}

	personas := make([]model.Persona, 0, len(req.PersonaIDs))
	for _, id := range req.PersonaIDs {
		p, err := s.registry.Get(id)
		if err != nil {
			eventChan <- model.CompareEvent{Error: fmt.Sprintf("Unknown persona: %s", id)}
			return
		}
		personas = append(personas, p)
	}

	now := time.Now()
	session := model.ComparisonSession{
		ID:         uuid.NewString(),
		Title:      deriveTitle(question),
		Question:   question,
		PersonaIDs: append([]string(nil), req.PersonaIDs...),
		Responses:  make(map[string][]model.Message, len(personas)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	eventChan <- model.CompareEvent{ComparisonID: session.ID}

	userMessage := model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   question,
		Timestamp: time.Now(),
	}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		slog.Warn("Could not load stored credential, relying on server default", "error", err)
	}

	slots := make([]compareResult, len(personas))
	var wg conc.WaitGroup
	for i, p := range personas {
		wg.Go(func() {
			s.streams.Stream(ctx, p, []model.Message{userMessage}, apiKey, stream.Callbacks{
				OnToken: func(token string) {
					eventChan <- model.CompareEvent{PersonaID: p.ID, Text: token}
				},
				OnDone: func(fullText string) {
					slots[i] = compareResult{answer: fullText, done: true}
					eventChan <- model.CompareEvent{PersonaID: p.ID, Done: true}
				},
				OnError: func(message string) {
					// An error is display content for this panel, not a fatal
					// abort of the sibling streams.
					slots[i] = compareResult{answer: "Error: " + message, done: true}
					eventChan <- model.CompareEvent{PersonaID: p.ID, Error: message, Done: true}
				},
			})
		})
	}
	wg.Wait()

	if ctx.Err() != nil {
		// Cancelled: aborted entries have no result and the session is never
		// persisted.
		return
	}
	for _, slot := range slots {
		if !slot.done {
			return
		}
	}

	for i, p := range personas {
		answer := model.Message{
			ID:        uuid.NewString(),
			Role:      model.RoleAssistant,
			Content:   slots[i].answer,
			PersonaID: p.ID,
			Timestamp: time.Now(),
		}
		session.Responses[p.ID] = []model.Message{userMessage, answer}
	}
	session.UpdatedAt = time.Now()

	if err := s.persistComparison(ctx, session); err != nil {
		slog.Error("Failed to persist comparison session", "comparison_id", session.ID, "error", err)
		eventChan <- model.CompareEvent{Error: "Could not save comparison"}
	}
}

func (s *CompareService) persistComparison(ctx context.Context, session model.ComparisonSession) error {
	comparisons, err := s.repo.LoadComparisons(ctx)
	if err != nil {
		return err
	}
	return s.repo.SaveComparisons(ctx, append([]model.ComparisonSession{session}, comparisons...))
}
