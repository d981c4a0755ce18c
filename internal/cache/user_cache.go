package cache

import (
	"fmt"
	"time"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	IdentityTTL       = 10 * time.Minute
	CoursePresenceTTL = 90 * time.Second // Match pong timeout
)

// UserCache handles identity and presence caching
type UserCache struct {
	redis *RedisCache
}

// NewUserCache creates a new user cache
func NewUserCache(redis *RedisCache) *UserCache {
	return &UserCache{redis: redis}
}

func identityKey(userID uuid.UUID) string {
	return fmt.Sprintf("identity:%s", userID)
}

func coursePresenceKey(courseID uuid.UUID) string {
	return fmt.Sprintf("course:%s:online", courseID)
}

// GetIdentity retrieves a cached identity
func (uc *UserCache) GetIdentity(userID uuid.UUID) (*models.Identity, bool) {
	if uc == nil || uc.redis == nil {
		return nil, false
	}
	data, err := uc.redis.Get(identityKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var identity models.Identity
	if err := msgpack.Unmarshal(data, &identity); err != nil {
		return nil, false
	}
	return &identity, true
}

// SetIdentity caches a resolved identity
func (uc *UserCache) SetIdentity(identity *models.Identity) error {
	if uc == nil || uc.redis == nil || identity == nil {
		return nil
	}
	data, err := msgpack.Marshal(identity)
	if err != nil {
		return err
	}
	return uc.redis.Set(identityKey(identity.ID), data, IdentityTTL)
}

// SetCourseOnline adds a user to the course's presence set. Calling it again
// refreshes the set's TTL so a crashed instance cannot pin users online.
func (uc *UserCache) SetCourseOnline(courseID, userID uuid.UUID) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	key := coursePresenceKey(courseID)
	if err := uc.redis.SetAdd(key, userID.String()); err != nil {
		return err
	}
	return uc.redis.Expire(key, CoursePresenceTTL)
}

// SetCourseOffline removes a user from the course's presence set
func (uc *UserCache) SetCourseOffline(courseID, userID uuid.UUID) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	return uc.redis.SetRemove(coursePresenceKey(courseID), userID.String())
}

// GetCourseOnline returns the users connected to a course across instances.
// ok is false when Redis is not configured.
func (uc *UserCache) GetCourseOnline(courseID uuid.UUID) (userIDs []uuid.UUID, ok bool, err error) {
	if uc == nil || uc.redis == nil {
		return nil, false, nil
	}
	members, err := uc.redis.SetMembers(coursePresenceKey(courseID))
	if err != nil {
		return nil, false, err
	}

	userIDs = make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		if id, err := uuid.Parse(member); err == nil {
			userIDs = append(userIDs, id)
		}
	}
	return userIDs, true, nil
}
