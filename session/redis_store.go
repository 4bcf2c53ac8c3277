//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Redis backed session store.
//

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyToken   = "token"
	keyExpires = "tokenExpires"
	keyUser    = "user"
)

// RedisStore keeps the three record fields under origin scoped keys.
// Expiry is enforced by the Guard, so keys are written without a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store for origin.
func NewRedisStore(client *redis.Client, origin string) (*RedisStore, error) {
	key, err := OriginKey(origin)
	if err != nil {
		return nil, err
	}

	return &RedisStore{
		client: client,
		prefix: "beatpace:" + key + ":",
	}, nil
}

func (r *RedisStore) key(field string) string {
	return r.prefix + field
}

func (r *RedisStore) keys() []string {
	return []string{r.key(keyToken), r.key(keyExpires), r.key(keyUser)}
}

// Read fetches all fields in one MGET. A record missing its token or
// expiry reads as no record.
func (r *RedisStore) Read(ctx context.Context) (*Record, error) {
	vals, err := r.client.MGet(ctx, r.keys()...).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis read failed: %w", err)
	}

	token, _ := vals[0].(string)
	expires, _ := vals[1].(string)
	if token == "" || expires == "" {
		return nil, nil
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, expires)
	if err != nil {
		return nil, fmt.Errorf("session: invalid stored expiry: %w", err)
	}

	rec := &Record{Token: token, ExpiresAt: expiresAt}

	if raw, ok := vals[2].(string); ok && raw != "" {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("session: invalid stored user: %w", err)
		}
		rec.User = &u
	}

	return rec, nil
}

// Write stores every field in a single MULTI/EXEC transaction.
func (r *RedisStore) Write(ctx context.Context, rec Record) error {
	var user []byte
	if rec.User != nil {
		var err error
		user, err = json.Marshal(rec.User)
		if err != nil {
			return fmt.Errorf("session: failed to marshal user: %w", err)
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(keyToken), rec.Token, 0)
		pipe.Set(ctx, r.key(keyExpires), rec.ExpiresAt.UTC().Format(time.RFC3339Nano), 0)
		if user != nil {
			pipe.Set(ctx, r.key(keyUser), user, 0)
		} else {
			pipe.Del(ctx, r.key(keyUser))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis write failed: %w", err)
	}
	return nil
}

// Clear deletes all fields with one DEL.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.keys()...).Err(); err != nil {
		return fmt.Errorf("session: redis clear failed: %w", err)
	}
	return nil
}
