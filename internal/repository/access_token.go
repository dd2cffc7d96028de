package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contentieux/internal/domain"
)

type AccessTokenRepository struct {
	db *sql.DB
}

func NewAccessTokenRepository(db *sql.DB) *AccessTokenRepository {
	return &AccessTokenRepository{db: db}
}

// FindByPlainToken hashes the presented bearer token and looks it up.
// Tokens may be prefixed "id|secret"; the id narrows the lookup when present.
func (r *AccessTokenRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.AccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	tokenPart := plainToken
	var tokenID *int64
	if idx := strings.Index(plainToken, "|"); idx > 0 {
		var id int64
		if _, err := fmt.Sscanf(plainToken[:idx], "%d", &id); err == nil {
			tokenID = &id
			tokenPart = plainToken[idx+1:]
		}
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(tokenPart)))

	var tok domain.AccessToken
	if tokenID != nil {
		query := `SELECT id, token_hash, agent_id, abilities, expires_at
			FROM access_tokens
			WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)`
		err := r.db.QueryRowContext(ctx, query, *tokenID, time.Now()).Scan(
			&tok.ID, &tok.TokenHash, &tok.AgentID, &tok.Abilities, &tok.ExpiresAt,
		)
		if err == nil && tok.TokenHash == hash {
			return &tok, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	query := `SELECT id, token_hash, agent_id, abilities, expires_at
		FROM access_tokens
		WHERE token_hash = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, hash, time.Now()).Scan(
		&tok.ID, &tok.TokenHash, &tok.AgentID, &tok.Abilities, &tok.ExpiresAt,
	)
	if err != nil {
		return nil, errors.New("token not found")
	}
	return &tok, nil
}
