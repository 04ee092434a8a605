// Package authredis caches token liveness in Redis. It is never the
// source of truth: a dead marker outranks a live entry, and live entries
// expire quickly.
package authredis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	livePrefix = "token:live:"
	deadPrefix = "token:dead:"
)

type State int

const (
	Unknown State = iota
	Live
	Dead
)

type Cache struct {
	client  redis.UniversalClient
	liveTTL time.Duration
	deadTTL time.Duration
}

// NewCache keeps live entries for liveTTL and dead markers for deadTTL,
// which should cover the token lifetime.
func NewCache(client redis.UniversalClient, liveTTL, deadTTL time.Duration) *Cache {
	return &Cache{client: client, liveTTL: liveTTL, deadTTL: deadTTL}
}

func (c *Cache) Lookup(ctx context.Context, token string) (State, error) {
	vals, err := c.client.MGet(ctx, key(deadPrefix, token), key(livePrefix, token)).Result()
	if err != nil {
		return Unknown, err
	}
	switch {
	case vals[0] != nil:
		return Dead, nil
	case vals[1] != nil:
		return Live, nil
	}
	return Unknown, nil
}

func (c *Cache) MarkLive(ctx context.Context, token string) error {
	return c.client.Set(ctx, key(livePrefix, token), 1, c.liveTTL).Err()
}

func (c *Cache) MarkDead(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, tok := range tokens {
			p.Del(ctx, key(livePrefix, tok))
			p.Set(ctx, key(deadPrefix, tok), 1, c.deadTTL)
		}
		return nil
	})
	return err
}

// Keys hold a digest, never the bearer token itself.
func key(prefix, token string) string {
	sum := sha256.Sum256([]byte(token))
	return prefix + hex.EncodeToString(sum[:])
}
