package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key holding a user's active login JTI.
func (r *CacheKeyStruct) UserLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SessionDeadlineKey returns the cache key for an exam session's deadline
// (unix seconds). Postgres remains the source of truth; this is a hot-path
// shortcut for the time-remaining query.
func (r *CacheKeyStruct) SessionDeadlineKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:deadline", sessionID)
}

// ExamMonitorChannel returns the Redis Pub/Sub channel carrying live
// session events for an exam (started, answered, submitted, page events).
func (r *CacheKeyStruct) ExamMonitorChannel(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
