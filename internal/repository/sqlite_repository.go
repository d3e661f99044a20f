package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"berean/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository stores each slot as one row in the slots table.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) loadSlot(ctx context.Context, key string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *sqliteRepository) saveSlot(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	return err
}

// decodeSlot deserializes a slot, degrading to the zero value when the stored
// payload is missing or corrupted.
func decodeSlot[T any](raw []byte, key string) T {
	var out T
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("Discarding corrupted slot value", "slot", key, "error", err)
		var empty T
		return empty
	}
	return out
}

func (r *sqliteRepository) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	raw, err := r.loadSlot(ctx, slotConversations)
	if err != nil {
		return nil, err
	}
	return decodeSlot[[]model.Conversation](raw, slotConversations), nil
}

func (r *sqliteRepository) SaveConversations(ctx context.Context, conversations []model.Conversation) error {
	value, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	return r.saveSlot(ctx, slotConversations, value)
}

func (r *sqliteRepository) LoadComparisons(ctx context.Context) ([]model.ComparisonSession, error) {
	raw, err := r.loadSlot(ctx, slotComparisons)
	if err != nil {
		return nil, err
	}
	return decodeSlot[[]model.ComparisonSession](raw, slotComparisons), nil
}

func (r *sqliteRepository) SaveComparisons(ctx context.Context, comparisons []model.ComparisonSession) error {
	value, err := json.Marshal(comparisons)
	if err != nil {
		return err
	}
	return r.saveSlot(ctx, slotComparisons, value)
}

func (r *sqliteRepository) LoadAPIKey(ctx context.Context) (string, error) {
	raw, err := r.loadSlot(ctx, slotAPIKey)
	if err != nil {
		return "", err
	}
	// The credential slot is stored verbatim, not JSON encoded.
	return string(raw), nil
}

func (r *sqliteRepository) SaveAPIKey(ctx context.Context, key string) error {
	return r.saveSlot(ctx, slotAPIKey, []byte(key))
}
