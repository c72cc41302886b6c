package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// secretDocument is the JSON shape the rotation job writes into the store.
type secretDocument struct {
	SigningKey string `json:"jwt_secret_key"`
	Algorithm  string `json:"algorithm"`
}

// RedisStore reads the signing secret from a Redis key maintained by the
// external rotation process.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a store reading the given key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Fetch reads the current secret. The stored value is either a JSON document
// with a jwt_secret_key field or the raw secret bytes themselves.
func (s *RedisStore) Fetch(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch signing secret: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	var doc secretDocument
	if err := json.Unmarshal(raw, &doc); err == nil && doc.SigningKey != "" {
		return []byte(doc.SigningKey), nil
	}
	return raw, nil
}
