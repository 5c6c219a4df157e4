package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// MemoryStore keeps per-chat conversation state in the chat_memory
// table.
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// GetMemory returns the stored state for a chat, or nil when the chat
// has none yet.
func (s *MemoryStore) GetMemory(ctx context.Context, chatID string) (*domain.ChatMemory, error) {
	var m domain.ChatMemory
	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id, last_document_text, scenario_override, updated_at
		FROM chat_memory
		WHERE chat_id = $1
	`, chatID).Scan(
		&m.ChatID,
		&m.LastDocumentText,
		&m.ScenarioOverride,
		&m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMemory upserts the chat state.
func (s *MemoryStore) SaveMemory(ctx context.Context, memory *domain.ChatMemory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_memory (chat_id, last_document_text, scenario_override, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET
			last_document_text = EXCLUDED.last_document_text,
			scenario_override  = EXCLUDED.scenario_override,
			updated_at         = EXCLUDED.updated_at
	`,
		memory.ChatID,
		memory.LastDocumentText,
		memory.ScenarioOverride,
		memory.UpdatedAt,
	)
	return err
}

// ClearMemory drops the chat state.
func (s *MemoryStore) ClearMemory(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_memory WHERE chat_id = $1`, chatID)
	return err
}
