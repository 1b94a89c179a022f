package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"
	"ms-transactions/internal/transaction"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "transaction:"

// CachedStore keeps a JSON copy of each transaction in Redis in front of the
// backing store. Redis failures are logged and never fail the request.
type CachedStore struct {
	Backend transaction.Store
	Client  *redis.Client
	TTL     time.Duration
	Logger  *logger.Logger
}

func NewCachedStore(backend transaction.Store, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedStore {
	return &CachedStore{Backend: backend, Client: client, TTL: ttl, Logger: log}
}

// Connect opens a client for addr and checks it answers PING.
func Connect(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s (DB: %d)", addr, client.Options().DB))
	return client, nil
}

func cacheKey(id string) string {
	return keyPrefix + id
}

func (c *CachedStore) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	saved, err := c.Backend.Save(ctx, tx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, saved)
	return saved, nil
}

func (c *CachedStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	raw, err := c.Client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var tx models.Transaction
		if jsonErr := json.Unmarshal(raw, &tx); jsonErr == nil {
			return &tx, nil
		}
		c.Logger.Warn("REDIS", fmt.Sprintf("Dropping unreadable cache entry for %s", id))
		c.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("REDIS", fmt.Sprintf("Cache read failed for %s: %v", id, err))
	}

	tx, err := c.Backend.FindByID(ctx, id)
	if err != nil || tx == nil {
		return tx, err
	}
	c.put(ctx, tx)
	return tx, nil
}

func (c *CachedStore) FindAll(ctx context.Context) ([]models.Transaction, error) {
	return c.Backend.FindAll(ctx)
}

func (c *CachedStore) DeleteByID(ctx context.Context, id string) error {
	if err := c.Backend.DeleteByID(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

// Ping reports the backing store first, then Redis.
func (c *CachedStore) Ping(ctx context.Context) error {
	if pinger, ok := c.Backend.(transaction.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
	}
	return c.Client.Ping(ctx).Err()
}

func (c *CachedStore) put(ctx context.Context, tx *models.Transaction) {
	payload, err := json.Marshal(tx)
	if err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Cannot encode transaction %s for cache: %v", tx.ID, err))
		return
	}
	if err := c.Client.Set(ctx, cacheKey(tx.ID), payload, c.TTL).Err(); err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Cache write failed for %s: %v", tx.ID, err))
	}
}

func (c *CachedStore) evict(ctx context.Context, id string) {
	if err := c.Client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Cache eviction failed for %s: %v", id, err))
	}
}
