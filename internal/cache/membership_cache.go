package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	MembershipTTL = 5 * time.Minute
	// generationTTL outlives any list entry, so a counter never resets
	// while a list written under it can still be read.
	generationTTL = 24 * time.Hour
)

// MembershipCache keeps each user's group id list. Entries are dropped on
// every membership change rather than patched, and every drop bumps a
// per-user generation so a reader that loaded the list before the change
// cannot write it back afterwards.
type MembershipCache struct {
	redis *RedisCache
}

func NewMembershipCache(redis *RedisCache) *MembershipCache {
	return &MembershipCache{redis: redis}
}

func membershipKey(userID uint) string {
	return fmt.Sprintf("groups:user:%d", userID)
}

func generationKey(userID uint) string {
	return fmt.Sprintf("groups:gen:%d", userID)
}

// Generation returns the user's invalidation counter. ok is false when the
// cache is disabled or unreachable; the caller must then skip the cache.
// Read it before loading from the database and hand it to SetGroupIDs.
func (mc *MembershipCache) Generation(userID uint) (gen int64, ok bool) {
	if mc == nil || mc.redis == nil {
		return 0, false
	}
	gen, err := mc.redis.GetInt64(generationKey(userID))
	if err != nil {
		return 0, false
	}
	return gen, true
}

// GetGroupIDs returns the cached list and whether it was present.
func (mc *MembershipCache) GetGroupIDs(userID uint) ([]uint, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(membershipKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	ids, err := decodeIDs(data)
	if err != nil {
		return nil, false
	}
	return ids, true
}

// SetGroupIDs caches ids only if no invalidation happened since gen was
// read. It reports whether the list was stored.
func (mc *MembershipCache) SetGroupIDs(userID uint, ids []uint, gen int64) (bool, error) {
	if mc == nil || mc.redis == nil {
		return false, nil
	}
	data, err := encodeIDs(ids)
	if err != nil {
		return false, err
	}
	return mc.redis.SetIfEqual(generationKey(userID), gen, membershipKey(userID), data, MembershipTTL)
}

// Invalidate drops the cached lists of the given users and bumps their
// generations in the same transaction.
func (mc *MembershipCache) Invalidate(userIDs ...uint) error {
	if mc == nil || mc.redis == nil || len(userIDs) == 0 {
		return nil
	}
	gens := make([]string, 0, len(userIDs))
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		gens = append(gens, generationKey(id))
		keys = append(keys, membershipKey(id))
	}
	return mc.redis.IncrAndDelete(gens, generationTTL, keys)
}

func encodeIDs(ids []uint) ([]byte, error) {
	if ids == nil {
		ids = []uint{}
	}
	return msgpack.Marshal(ids)
}

func decodeIDs(data []byte) ([]uint, error) {
	var ids []uint
	if err := msgpack.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
