package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greensteps/greensteps-api/internal/dto"
)

// SnapshotCache stores progression snapshots in Redis. A nil client
// disables caching entirely.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache constructs a cache wrapper.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(schoolID string) string {
	return "progression:snapshot:" + schoolID
}

// Get returns a cached snapshot, or nil on miss.
func (c *SnapshotCache) Get(ctx context.Context, schoolID string) (*dto.ProgressionSnapshot, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, snapshotKey(schoolID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot cache get: %w", err)
	}
	var snapshot dto.ProgressionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("snapshot cache decode: %w", err)
	}
	return &snapshot, nil
}

// Set stores a snapshot with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snapshot *dto.ProgressionSnapshot) error {
	if c == nil || c.client == nil || snapshot == nil {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("snapshot cache encode: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(snapshot.SchoolID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot after a progression write.
func (c *SnapshotCache) Invalidate(ctx context.Context, schoolID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, snapshotKey(schoolID)).Err(); err != nil {
		return fmt.Errorf("snapshot cache invalidate: %w", err)
	}
	return nil
}
