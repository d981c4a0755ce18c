package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for different cache types
const (
	CourseHistoryTTL = 5 * time.Minute
	UnreadCountTTL   = 1 * time.Minute
)

// MessageCache handles course chat caching.
//
// Entries are keyed by generation counters instead of being deleted. A new
// message bumps the course generation and a markRead bumps the reader's, so a
// value computed before either write lands under a key nobody reads again.
// Callers must take the version before querying the database.
type MessageCache struct {
	redis *RedisCache
}

// NewMessageCache creates a new message cache
func NewMessageCache(redis *RedisCache) *MessageCache {
	return &MessageCache{redis: redis}
}

func courseGenerationKey(courseID uuid.UUID) string {
	return fmt.Sprintf("course:%s:gen", courseID)
}

func readerGenerationKey(courseID, userID uuid.UUID) string {
	return fmt.Sprintf("unread:%s:%s:gen", courseID, userID)
}

func courseHistoryKey(courseID uuid.UUID, version string) string {
	return fmt.Sprintf("course:%s:history:%s", courseID, version)
}

func unreadKey(courseID, userID uuid.UUID, version string) string {
	return fmt.Sprintf("unread:%s:%s:%s", courseID, userID, version)
}

func (mc *MessageCache) enabled() bool {
	return mc != nil && mc.redis != nil
}

func (mc *MessageCache) generation(key string) (int64, error) {
	data, err := mc.redis.Get(key)
	if err != nil || data == nil {
		return 0, err
	}
	return strconv.ParseInt(string(data), 10, 64)
}

// HistoryVersion returns the version to read and write the course history
// under. ok is false when caching is unavailable.
func (mc *MessageCache) HistoryVersion(courseID uuid.UUID) (version string, ok bool) {
	if !mc.enabled() {
		return "", false
	}
	gen, err := mc.generation(courseGenerationKey(courseID))
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(gen, 10), true
}

// UnreadVersion returns the version to read and write a reader's unread count
// under. It changes on every new message in the course and every markRead by
// the reader.
func (mc *MessageCache) UnreadVersion(courseID, userID uuid.UUID) (version string, ok bool) {
	if !mc.enabled() {
		return "", false
	}
	courseGen, err := mc.generation(courseGenerationKey(courseID))
	if err != nil {
		return "", false
	}
	readerGen, err := mc.generation(readerGenerationKey(courseID, userID))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d.%d", courseGen, readerGen), true
}

// MessageAppended retires every cached history and unread count of the course
func (mc *MessageCache) MessageAppended(courseID uuid.UUID) error {
	if !mc.enabled() {
		return nil
	}
	_, err := mc.redis.Incr(courseGenerationKey(courseID))
	return err
}

// CursorMoved retires the cached unread count of one reader
func (mc *MessageCache) CursorMoved(courseID, userID uuid.UUID) error {
	if !mc.enabled() {
		return nil
	}
	_, err := mc.redis.Incr(readerGenerationKey(courseID, userID))
	return err
}

// GetCourseHistory retrieves the cached message history of a course
func (mc *MessageCache) GetCourseHistory(courseID uuid.UUID, version string) ([]models.CourseMessageResponse, bool) {
	if !mc.enabled() {
		return nil, false
	}
	data, err := mc.redis.Get(courseHistoryKey(courseID, version))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.CourseMessageResponse
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}

	return messages, true
}

// SetCourseHistory caches the message history of a course
func (mc *MessageCache) SetCourseHistory(courseID uuid.UUID, version string, messages []models.CourseMessageResponse) error {
	if !mc.enabled() {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}

	return mc.redis.Set(courseHistoryKey(courseID, version), data, CourseHistoryTTL)
}

// GetUnreadCount retrieves a cached unread count
func (mc *MessageCache) GetUnreadCount(courseID, userID uuid.UUID, version string) (int64, bool) {
	if !mc.enabled() {
		return 0, false
	}
	data, err := mc.redis.Get(unreadKey(courseID, userID, version))
	if err != nil || data == nil {
		return 0, false
	}

	var count int64
	if err := msgpack.Unmarshal(data, &count); err != nil {
		return 0, false
	}

	return count, true
}

// SetUnreadCount caches an unread count
func (mc *MessageCache) SetUnreadCount(courseID, userID uuid.UUID, version string, count int64) error {
	if !mc.enabled() {
		return nil
	}
	data, err := msgpack.Marshal(count)
	if err != nil {
		return err
	}

	return mc.redis.Set(unreadKey(courseID, userID, version), data, UnreadCountTTL)
}
