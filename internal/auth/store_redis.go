// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorekeep/lorekeep/internal/platform/constants"
)

// # Browser Session Store

// RedisWebSessionStore implements WebSessionStore on a Redis hash per
// session, expiring with the session TTL.
type RedisWebSessionStore struct {
	client *redis.Client
}

// NewWebSessionStore creates a new Redis-backed WebSessionStore.
func NewWebSessionStore(client *redis.Client) *RedisWebSessionStore {
	return &RedisWebSessionStore{client: client}
}

// key namespaces the session hash under the web-session prefix.
func (store *RedisWebSessionStore) key(sessionID string) string {
	return constants.RedisPrefixWebSession + sessionID
}

/*
Set stores a session entry and refreshes the whole session's TTL.

Parameters:
  - context: context.Context
  - sessionID: string
  - key: string
  - value: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisWebSessionStore) Set(context context.Context, sessionID, key, value string, ttl time.Duration) error {
	hashKey := store.key(sessionID)

	if err := store.client.HSet(context, hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("redis_web_session_set_failed: %w", err)
	}

	// The TTL covers the whole session hash: any write keeps it alive.
	if err := store.client.Expire(context, hashKey, ttl).Err(); err != nil {
		return fmt.Errorf("redis_web_session_expire_failed: %w", err)
	}

	return nil
}

/*
Values returns every entry of a session.

Description: Returns ErrNotFound when the session is absent or its TTL has
elapsed — Redis reports both identically as an empty hash.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - map[string]string: Session entries
  - error: ErrNotFound or connectivity errors
*/
func (store *RedisWebSessionStore) Values(context context.Context, sessionID string) (map[string]string, error) {
	values, err := store.client.HGetAll(context, store.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_web_session_values_failed: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrNotFound
	}

	return values, nil
}

/*
Delete removes a session entirely. Idempotent: deleting a missing session
succeeds.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Execution errors
*/
func (store *RedisWebSessionStore) Delete(context context.Context, sessionID string) error {
	if err := store.client.Del(context, store.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis_web_session_delete_failed: %w", err)
	}
	return nil
}
