package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/veloura/veloura-backend/config"
	"github.com/veloura/veloura-backend/pkg/logger"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// ErrNotInitialized is returned when a command runs before Init
var ErrNotInitialized = fmt.Errorf("redis client not initialized")

// BlacklistToken adds a token to the blacklist until it would have expired
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if client == nil {
		return ErrNotInitialized
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("blacklist:%s", token)
	err := client.Set(ctx, key, "revoked", expiry).Err()
	if err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}

	logger.Debug("Token successfully blacklisted", nil)
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if client == nil {
		return false, ErrNotInitialized
	}
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		// Key does not exist - token is not blacklisted
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// Guard reserves checkout idempotency keys so a double-submitted order
// only gets created once.
type Guard struct {
	client *redis.Client
}

// NewGuard returns an idempotency guard backed by the shared client
func NewGuard() *Guard {
	return &Guard{client: client}
}

// Reserve claims the key for the given user. Returns false when the key
// was already claimed by an earlier request.
func (g *Guard) Reserve(ctx context.Context, userID uint, key string, ttl time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("checkout:%d:%s", userID, key)
	ok, err := g.client.SetNX(ctx, redisKey, "reserved", ttl).Result()
	if err != nil {
		logger.Error("Failed to reserve idempotency key", err, map[string]interface{}{
			"user_id": userID,
		})
		return false, err
	}
	return ok, nil
}

// Release frees a reserved key so the caller may retry after a failed
// checkout attempt.
func (g *Guard) Release(ctx context.Context, userID uint, key string) error {
	redisKey := fmt.Sprintf("checkout:%d:%s", userID, key)
	if err := g.client.Del(ctx, redisKey).Err(); err != nil {
		logger.Error("Failed to release idempotency key", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

// KV is the small key-value surface the guest session store needs.
// The shared client satisfies it through Client(); tests substitute an
// in-memory implementation.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ErrKeyNotFound is returned by KV.Get for missing keys
var ErrKeyNotFound = redis.Nil

type clientKV struct {
	client *redis.Client
}

// NewKV returns a KV backed by the shared client
func NewKV() KV {
	return &clientKV{client: client}
}

func (kv *clientKV) Get(ctx context.Context, key string) (string, error) {
	return kv.client.Get(ctx, key).Result()
}

func (kv *clientKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return kv.client.Set(ctx, key, value, ttl).Err()
}

func (kv *clientKV) Del(ctx context.Context, keys ...string) error {
	return kv.client.Del(ctx, keys...).Err()
}
