package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRegistry tracks active sessions in Redis with a TTL per key.
// Session expiry is owned by the store rather than in-process timers, so
// every instance of the service sees the same registry and nothing leaks
// when a process restarts.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRegistry wraps a Redis client.
func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRegistry{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Register records a live session for the subject.
func (r *SessionRegistry) Register(ctx context.Context, sessionID, subjectID string) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Set(ctx, sessionKey(sessionID), subjectID, r.ttl).Err()
}

// Active reports whether the session is still registered. A registry
// without a Redis backend treats every session as active.
func (r *SessionRegistry) Active(ctx context.Context, sessionID string) (bool, error) {
	if r == nil || r.client == nil {
		return true, nil
	}
	if err := r.client.Get(ctx, sessionKey(sessionID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke removes a session immediately (logout, account block).
func (r *SessionRegistry) Revoke(ctx context.Context, sessionID string) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}
