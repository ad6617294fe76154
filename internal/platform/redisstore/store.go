// Package redisstore stores diagnostic records in Redis as JSON strings with
// an expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/genewise-api/internal/diagnostics"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "genewise:"

// Store implements diagnostics.Store on a Redis client.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client. A zero ttl keeps records forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, ttl), nil
}

// Key returns the Redis key for collection/path.
func Key(collection, path string) string {
	return keyPrefix + collection + ":" + path
}

// Store writes value unless a record already exists at the key.
func (s *Store) Store(ctx context.Context, collection, path string, value any) error {
	if err := diagnostics.ValidateKey(collection, path); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", diagnostics.ErrInvalidRecord, err)
	}

	key := Key(collection, path)
	created, err := s.client.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store diagnostic: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", diagnostics.ErrDuplicate, key)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
