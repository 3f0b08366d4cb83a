package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry keeps sessions in Redis with a server-side TTL, one JSON blob
// per session plus a per-user set of session IDs.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRegistry returns a RedisRegistry. prefix defaults to "examauth"
// when empty.
func NewRedisRegistry(client redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "examauth"
	}
	return &RedisRegistry{client: client, prefix: prefix}
}

func (r *RedisRegistry) sessionKey(id string) string {
	return r.prefix + ":sess:" + id
}

func (r *RedisRegistry) userKey(username string) string {
	return r.prefix + ":user:" + username
}

// Put stores s with a TTL matching its remaining lifetime.
func (r *RedisRegistry) Put(ctx context.Context, s Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrRegistryUnavailable, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
	pipe.SAdd(ctx, r.userKey(s.Username), s.ID)
	// The index outlives the longest session slightly; stale IDs in it are
	// filtered on read and on DeleteUser.
	pipe.Expire(ctx, r.userKey(s.Username), ttl+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}

// Get resolves id. Redis TTL handles expiry; a missing key is ErrNotFound.
func (r *RedisRegistry) Get(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, ErrNotFound
	}
	if s.Expired() {
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, r.sessionKey(id))
		pipe.SRem(ctx, r.userKey(s.Username), id)
		_, _ = pipe.Exec(ctx)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Delete removes a session and its index entry; absent IDs are a no-op.
func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		_ = r.client.Del(ctx, r.sessionKey(id)).Err()
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(id))
	pipe.SRem(ctx, r.userKey(s.Username), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}

// DeleteUser removes every live session of username.
func (r *RedisRegistry) DeleteUser(ctx context.Context, username string) (int, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(username)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	dropped := 0
	for _, id := range ids {
		exists, err := r.client.Del(ctx, r.sessionKey(id)).Result()
		if err != nil {
			return dropped, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
		}
		if exists > 0 {
			dropped++
		}
	}
	if err := r.client.Del(ctx, r.userKey(username)).Err(); err != nil {
		return dropped, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return dropped, nil
}
