package cache

import (
	"time"
)

// TokenCache mirrors the revoked-token table so the auth middleware can
// answer most checks without a database round trip.
type TokenCache struct {
	redis *RedisCache
}

func NewTokenCache(redis *RedisCache) *TokenCache {
	return &TokenCache{redis: redis}
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}

// Revoke marks jti as revoked until expiresAt. Already expired tokens are skipped.
func (tc *TokenCache) Revoke(jti string, expiresAt time.Time) error {
	if tc == nil || tc.redis == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return tc.redis.Set(revokedKey(jti), []byte("1"), ttl)
}

// IsRevoked reports (revoked, known). known is false when the cache could
// not answer and the caller must ask the database.
func (tc *TokenCache) IsRevoked(jti string) (bool, bool) {
	if tc == nil || tc.redis == nil {
		return false, false
	}
	ok, err := tc.redis.Exists(revokedKey(jti))
	if err != nil {
		return false, false
	}
	if ok {
		return true, true
	}
	// A miss is not authoritative: the key may have been evicted or Redis restarted.
	return false, false
}
