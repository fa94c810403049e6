package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StorageKey is where the "manually disconnected" flag is persisted.
const StorageKey = "sticket:freighter_manually_disconnected"

// FlagStore persists whether the operator explicitly disconnected.
type FlagStore interface {
	ManuallyDisconnected(ctx context.Context) (bool, error)
	SetManuallyDisconnected(ctx context.Context, disconnected bool) error
}

type RedisFlagStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisFlagStore(client redis.Cmdable) *RedisFlagStore {
	return &RedisFlagStore{client: client, key: StorageKey}
}

func (s *RedisFlagStore) ManuallyDisconnected(ctx context.Context) (bool, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read disconnect flag: %w", err)
	}
	return value == "true", nil
}

func (s *RedisFlagStore) SetManuallyDisconnected(ctx context.Context, disconnected bool) error {
	if disconnected {
		if err := s.client.Set(ctx, s.key, "true", 0).Err(); err != nil {
			return fmt.Errorf("failed to set disconnect flag: %w", err)
		}
		return nil
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear disconnect flag: %w", err)
	}
	return nil
}

// MemoryFlagStore keeps the flag for the lifetime of the process only.
type MemoryFlagStore struct {
	mu           sync.RWMutex
	disconnected bool
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{}
}

func (s *MemoryFlagStore) ManuallyDisconnected(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disconnected, nil
}

func (s *MemoryFlagStore) SetManuallyDisconnected(ctx context.Context, disconnected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = disconnected
	return nil
}
