package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// CaseStore keeps the routing audit trail in the case_records table.
type CaseStore struct {
	db *sql.DB
}

// NewCaseStore creates a CaseStore.
func NewCaseStore(db *sql.DB) *CaseStore {
	return &CaseStore{db: db}
}

// InsertCase appends one audit record.
func (s *CaseStore) InsertCase(ctx context.Context, record *domain.CaseRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_records (id, chat_id, transport, scenario_id, confidence, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		record.ID,
		record.ChatID,
		record.Transport,
		record.ScenarioID,
		record.Confidence,
		record.Message,
		record.CreatedAt,
	)
	return err
}

// ListCases returns records created at or after since, newest first.
func (s *CaseStore) ListCases(ctx context.Context, since time.Time, limit int) ([]domain.CaseRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, transport, scenario_id, confidence, message, created_at
		FROM case_records
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CaseRecord, 0)
	for rows.Next() {
		var r domain.CaseRecord
		if err := rows.Scan(
			&r.ID,
			&r.ChatID,
			&r.Transport,
			&r.ScenarioID,
			&r.Confidence,
			&r.Message,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
