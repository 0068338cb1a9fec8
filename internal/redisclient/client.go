package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetJSON caches a value as JSON with a TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// GetJSON loads a cached JSON value into dest. Returns false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Invalidate removes cached keys
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// WebhookSeen reports whether a webhook event id was already applied.
func (c *Client) WebhookSeen(ctx context.Context, eventID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, fmt.Sprintf("webhook:%s", eventID)).Result()
	return n > 0, err
}

// MarkWebhookSeen records a webhook event id with a TTL. Callers must
// only mark events that were fully applied; an event marked before its
// effects land would drop the gateway's retries.
func (c *Client) MarkWebhookSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("webhook:%s", eventID), "1", ttl).Result()
}

// RevokeTokensBefore stores a cutoff so tokens issued earlier are
// rejected, used on password change
func (c *Client) RevokeTokensBefore(ctx context.Context, userID int64, cutoff time.Time, ttl time.Duration) error {
	key := fmt.Sprintf("token-cutoff:%d", userID)
	return c.rdb.Set(ctx, key, cutoff.Unix(), ttl).Err()
}

// TokenCutoff returns the revocation cutoff for a user, zero when none
func (c *Client) TokenCutoff(ctx context.Context, userID int64) (time.Time, error) {
	key := fmt.Sprintf("token-cutoff:%d", userID)
	unix, err := c.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
