package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Identity is the part of a user the auth middleware needs on every request.
type Identity struct {
	Role    domain.Role `json:"role"`
	Enabled bool        `json:"enabled"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCache(addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func identityKey(userID int64) string {
	return fmt.Sprintf("user_identity:%d", userID)
}

func (c *Cache) GetIdentity(ctx context.Context, userID int64) (*Identity, bool, error) {
	val, err := c.client.Get(ctx, identityKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var identity Identity
	if err := json.Unmarshal(val, &identity); err != nil {
		c.logger.Warn("dropping unreadable identity entry", zap.Int64("user_id", userID), zap.Error(err))
		c.client.Del(ctx, identityKey(userID))
		return nil, false, nil
	}
	return &identity, true, nil
}

func (c *Cache) SetIdentity(ctx context.Context, userID int64, identity Identity) error {
	val, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, identityKey(userID), val, c.ttl).Err()
}

// Invalidate drops the cached identity after a role or enabled change.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, identityKey(userID)).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
