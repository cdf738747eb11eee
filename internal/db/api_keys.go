package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateAPIKey stores the hash of a newly issued key for userID.
func (db *DB) CreateAPIKey(ctx context.Context, userID uuid.UUID, keyHash, prefix string) (*APIKey, error) {
	k := APIKey{UserID: userID, KeyHash: keyHash, Prefix: prefix}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, key_hash, key_prefix)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		userID, keyHash, prefix,
	).Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}
	return &k, nil
}

// GetUserByAPIKeyHash resolves a key hash to its owner and records the use.
// Returns nil, nil when the key is unknown or revoked.
func (db *DB) GetUserByAPIKeyHash(ctx context.Context, keyHash string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx,
		`UPDATE api_keys k SET last_used_at = NOW()
		 FROM users u
		 WHERE k.key_hash = $1 AND u.id = k.user_id
		 RETURNING u.id, u.username, u.password_hash, u.created_at`,
		keyHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	return &u, nil
}

// ListAPIKeys returns the keys owned by userID, oldest first.
func (db *DB) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]APIKey, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, key_hash, key_prefix, created_at, last_used_at
		 FROM api_keys WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	keys := []APIKey{}
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Prefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}
	return keys, nil
}

// DeleteAPIKeyByHash revokes a key. It reports whether a key was removed.
func (db *DB) DeleteAPIKeyByHash(ctx context.Context, keyHash string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM api_keys WHERE key_hash = $1`, keyHash)
	if err != nil {
		return false, fmt.Errorf("failed to delete api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
