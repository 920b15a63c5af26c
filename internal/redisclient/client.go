package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseLockScript deletes the lock only if it still holds the caller's token
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// ErrLockNotHeld is returned when releasing a lock that expired or belongs to someone else
var ErrLockNotHeld = errors.New("lock not held")

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
	searchTTL     time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, searchTTL time.Duration) (*Client, error) {
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

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
		searchTTL:     searchTTL,
	}, nil
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Lock is a held distributed lock
type Lock struct {
	key   string
	token string
}

// ProductLockKey returns the lock key serializing pipeline runs of one product
func ProductLockKey(productID int64) string {
	return fmt.Sprintf("lock:product:%d", productID)
}

// AcquireLock takes a distributed lock. It returns nil when the lock is held elsewhere.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.New().String()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{key: key, token: token}, nil
}

// ReleaseLock releases a lock taken by AcquireLock
func (c *Client) ReleaseLock(ctx context.Context, lock *Lock) error {
	deleted, err := c.releaseScript.Run(ctx, c.rdb, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", lock.key, ErrLockNotHeld)
	}
	return nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// GetSearchResult returns a cached search result, or nil on a miss
func (c *Client) GetSearchResult(ctx context.Context, key string) (*models.SearchResult, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result models.SearchResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached search result: %w", err)
	}
	return &result, nil
}

// SetSearchResult caches a search result for the configured TTL. A zero TTL disables caching.
func (c *Client) SetSearchResult(ctx context.Context, key string, result *models.SearchResult) error {
	if c.searchTTL <= 0 {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode search result: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.searchTTL).Err()
}
