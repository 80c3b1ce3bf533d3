package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectionRegistry maps live transport connections to the session they
// joined, so inbound events can be routed without the client re-supplying
// the session ID, and so a transport-level disconnect can find the session
// to mark the player in. Bind is an idempotent upsert; Unbind tolerates
// double-disconnect and returns the prior binding.
type ConnectionRegistry interface {
	Bind(ctx context.Context, connectionID, sessionID string) error
	Lookup(ctx context.Context, connectionID string) (string, error)
	Unbind(ctx context.Context, connectionID string) (string, error)
	UnbindSession(ctx context.Context, sessionID string) error
}

type registryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConnectionRegistry(client *redis.Client) ConnectionRegistry {
	return &registryCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *registryCache) connKey(connectionID string) string {
	return "conn:" + connectionID
}

func (c *registryCache) sessionConnsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:conns", sessionID)
}

func (c *registryCache) Bind(ctx context.Context, connectionID, sessionID string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.connKey(connectionID), sessionID, c.ttl)
	pipe.SAdd(ctx, c.sessionConnsKey(sessionID), connectionID)
	pipe.Expire(ctx, c.sessionConnsKey(sessionID), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *registryCache) Lookup(ctx context.Context, connectionID string) (string, error) {
	sessionID, err := c.client.Get(ctx, c.connKey(connectionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (c *registryCache) Unbind(ctx context.Context, connectionID string) (string, error) {
	sessionID, err := c.client.GetDel(ctx, c.connKey(connectionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := c.client.SRem(ctx, c.sessionConnsKey(sessionID), connectionID).Err(); err != nil {
		return sessionID, err
	}
	return sessionID, nil
}

func (c *registryCache) UnbindSession(ctx context.Context, sessionID string) error {
	connectionIDs, err := c.client.SMembers(ctx, c.sessionConnsKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := c.client.TxPipeline()
	for _, connectionID := range connectionIDs {
		pipe.Del(ctx, c.connKey(connectionID))
	}
	pipe.Del(ctx, c.sessionConnsKey(sessionID))
	_, err = pipe.Exec(ctx)
	return err
}
