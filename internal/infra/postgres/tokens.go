package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// TokenStore keeps Bitrix OAuth tokens in the bitrix_tokens table.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// GetTokens returns the token pair for a portal member. An empty
// memberID returns the most recently refreshed pair: single-portal
// installs never learn their member_id before the first OAuth callback.
func (s *TokenStore) GetTokens(ctx context.Context, memberID string) (*domain.BitrixTokens, error) {
	query := `
		SELECT member_id, access_token, refresh_token, domain, expires_at
		FROM bitrix_tokens
		WHERE member_id = $1
	`
	args := []any{memberID}
	if memberID == "" {
		query = `
			SELECT member_id, access_token, refresh_token, domain, expires_at
			FROM bitrix_tokens
			ORDER BY updated_at DESC
			LIMIT 1
		`
		args = nil
	}

	var t domain.BitrixTokens
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&t.MemberID,
		&t.AccessToken,
		&t.RefreshToken,
		&t.Domain,
		&t.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveTokens upserts the token pair for a portal member.
func (s *TokenStore) SaveTokens(ctx context.Context, tokens *domain.BitrixTokens) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bitrix_tokens (member_id, access_token, refresh_token, domain, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (member_id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			domain        = EXCLUDED.domain,
			expires_at    = EXCLUDED.expires_at,
			updated_at    = now()
	`,
		tokens.MemberID,
		tokens.AccessToken,
		tokens.RefreshToken,
		tokens.Domain,
		tokens.ExpiresAt,
	)
	return err
}
