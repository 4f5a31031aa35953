package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SummaryCache keeps oracle-generated summaries in redis so repeated
// reads of the same message don't re-bill the oracle. All failures are
// treated as cache misses; redis being down never fails a request.
type SummaryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SummaryCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *SummaryCache) key(messageID string) string {
	return "summary:" + messageID
}

// Get returns the cached summary for a message and whether it was
// present.
func (c *SummaryCache) Get(ctx context.Context, messageID string) (string, bool) {
	val, err := c.rdb.Get(ctx, c.key(messageID)).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Debug("Summary cache read failed",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
		return "", false
	}
	return val, true
}

// Set stores a summary, best effort.
func (c *SummaryCache) Set(ctx context.Context, messageID, summary string) {
	if err := c.rdb.Set(ctx, c.key(messageID), summary, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Debug("Summary cache write failed",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
