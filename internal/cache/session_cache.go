package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluesumk/mjjf/internal/model"
)

// SessionCache is a read-through cache of session documents. Mongo stays the
// source of truth; every mutation path invalidates the cached copy.
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache.
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    time.Minute, // short TTL, clients re-fetch on load anyway
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
