package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/compute/internal/model"
	"github.com/edvin/compute/internal/platform"
)

type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key and stores only its hash. The
// plaintext key is returned once and cannot be recovered.
func (s *APIKeyService) Create(ctx context.Context, name string) (string, *model.APIKey, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generating api key: %w", err)
	}
	plaintext := "ck_" + hex.EncodeToString(raw)

	key := &model.APIKey{
		ID:        platform.NewID(),
		Name:      name,
		KeyHash:   HashAPIKey(plaintext),
		KeyPrefix: plaintext[:11],
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("storing api key: %w", err)
	}

	return plaintext, key, nil
}

// Validate looks up a plaintext key by hash. Revoked keys do not match.
func (s *APIKeyService) Validate(ctx context.Context, plaintext string) (*model.APIKey, error) {
	var key model.APIKey
	err := s.db.QueryRow(ctx, `
		SELECT id, name, key_hash, key_prefix, created_at, revoked_at
		FROM api_keys
		WHERE key_hash = $1 AND revoked_at IS NULL`,
		HashAPIKey(plaintext)).
		Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.CreatedAt, &key.RevokedAt)
	if err != nil {
		return nil, fmt.Errorf("validating api key: %w", err)
	}
	return &key, nil
}

func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, key_hash, key_prefix, created_at, revoked_at
		FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE api_keys SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
