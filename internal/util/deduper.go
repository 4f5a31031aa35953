package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is process-scoped anti-replay state backed by redis. It is
// created once at startup and shared by reference.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for a given operation and
// message ID. It returns true if this is the first time within the TTL
// and false on a replay. When redis is unavailable it allows the
// operation rather than blocking mailbox traffic.
func (d *Deduper) AcquireOnce(ctx context.Context, operation, messageID string) bool {
	key := fmt.Sprintf("dedup:%s:%s", operation, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing operation",
				zap.String("operation", operation),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped replayed operation",
			zap.String("operation", operation),
			zap.String("message_id", messageID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release drops the dedup key so the operation can be attempted again.
// Callers use it when the guarded operation failed after acquisition;
// without it a transient failure would block retries for the full TTL.
func (d *Deduper) Release(ctx context.Context, operation, messageID string) {
	key := fmt.Sprintf("dedup:%s:%s", operation, messageID)

	if err := d.rdb.Del(ctx, key).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Redis dedup release failed",
			zap.String("operation", operation),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
