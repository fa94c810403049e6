package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sticket-backend/models"
)

const DefaultEventCacheTTL = 30 * time.Second

// EventCache keeps assembled event details in Redis for a short TTL.
type EventCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewEventCache(client redis.Cmdable, ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = DefaultEventCacheTTL
	}
	return &EventCache{client: client, ttl: ttl}
}

func eventKey(address string) string {
	return fmt.Sprintf("event:details:%s", strings.ToLower(address))
}

// Get returns nil, nil on a miss.
func (c *EventCache) Get(ctx context.Context, address string) (*models.EventDetails, error) {
	data, err := c.client.Get(ctx, eventKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event cache: %w", err)
	}

	var details models.EventDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("failed to decode cached event: %w", err)
	}
	return &details, nil
}

func (c *EventCache) Set(ctx context.Context, address string, details *models.EventDetails) error {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := c.client.Set(ctx, eventKey(address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write event cache: %w", err)
	}
	return nil
}

func (c *EventCache) Delete(ctx context.Context, address string) error {
	if err := c.client.Del(ctx, eventKey(address)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate event cache: %w", err)
	}
	return nil
}
