package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"mailpilot/pkg/metrics"
)

const defaultSlowThreshold = 100 * time.Millisecond

type queryCtxKey struct{}

type queryInfo struct {
	started time.Time
	sql     string
}

// slowQueryTracer logs and counts queries slower than the threshold.
// It implements pgx.QueryTracer; the SQL travels through the context
// because TraceQueryEndData does not carry it.
type slowQueryTracer struct {
	logger    *zap.Logger
	threshold time.Duration
}

func newSlowQueryTracer(logger *zap.Logger, threshold time.Duration) *slowQueryTracer {
	if threshold <= 0 {
		threshold = defaultSlowThreshold
	}
	return &slowQueryTracer{logger: logger, threshold: threshold}
}

func (t *slowQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryCtxKey{}, queryInfo{started: time.Now(), sql: data.SQL})
}

func (t *slowQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	info, ok := ctx.Value(queryCtxKey{}).(queryInfo)
	if !ok {
		return
	}

	took := time.Since(info.started)
	if took <= t.threshold {
		return
	}

	sql := info.sql
	if len(sql) > 200 {
		sql = sql[:200] + "..."
	}

	t.logger.Warn("slow-query",
		zap.String("sql", sql),
		zap.Duration("took", took),
		zap.String("command_tag", data.CommandTag.String()),
	)
	metrics.IncrementSlowQuery()
}
