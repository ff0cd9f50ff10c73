package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// SessionTTL bounds staleness of cached session reads; every mutating
// operation evicts the key anyway.
const SessionTTL = 5 * time.Minute

// SessionKey is the cache key for a session looked up by id.
func SessionKey(sessionID string) string {
	return "committees:session:" + sessionID
}
