package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Assistant command executions, by action and outcome.
	CommandCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_command_count",
			Help: "Total number of assistant commands executed",
		},
		[]string{"action", "status"}, // status: success, failed
	)

	// Oracle call latency (milliseconds).
	OracleCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_call_latency_ms",
			Help:    "Text-generation oracle call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"operation", "status"},
	)

	// Heuristic fallbacks taken when the oracle path was unusable.
	OracleFallbackCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_fallback_count",
			Help: "Total number of times a deterministic fallback replaced the oracle",
		},
		[]string{"operation"}, // operation: parse_command, summarize, generate_reply
	)

	// Backoff retry attempts, by wrapped operation.
	RetryAttemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempt_count",
			Help: "Total number of backoff retry attempts",
		},
		[]string{"operation"},
	)

	// Mailbox store call latency (seconds).
	MailboxCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailbox_call_duration_seconds",
			Help:    "Mailbox store call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "status"},
	)

	// Queries slower than the configured threshold.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slow_query_count",
			Help: "Total number of SQL queries slower than the threshold",
		},
	)

	// Operation events recorded, by kind and outcome.
	OperationEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operation_event_count",
			Help: "Total number of operation events recorded",
		},
		[]string{"event_kind", "status"},
	)
)

// IncrementCommand 记录一次命令执行
func IncrementCommand(action, status string) {
	CommandCount.WithLabelValues(action, status).Inc()
}

// RecordOracleCallLatency 记录 oracle 调用延迟
func RecordOracleCallLatency(operation, status string, duration time.Duration) {
	OracleCallLatency.WithLabelValues(operation, status).Observe(float64(duration.Milliseconds()))
}

// IncrementOracleFallback 记录一次降级到确定性路径
func IncrementOracleFallback(operation string) {
	OracleFallbackCount.WithLabelValues(operation).Inc()
}

// IncrementRetryAttempt 记录一次重试
func IncrementRetryAttempt(operation string) {
	RetryAttemptCount.WithLabelValues(operation).Inc()
}

// RecordMailboxCallDuration 记录邮箱存储调用延迟
func RecordMailboxCallDuration(operation, status string, duration time.Duration) {
	MailboxCallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录一次慢查询
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// IncrementOperationEvent 记录一次操作事件
func IncrementOperationEvent(eventKind, status string) {
	OperationEventCount.WithLabelValues(eventKind, status).Inc()
}
