package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/repository"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/metrics"
)

// Event kinds recorded by the workflows.
const (
	EventUserCommand  = "user_command"
	EventEmailAction  = "email_action"
	EventAICall       = "ai_call"
	EventRetryAttempt = "retry_attempt"
)

// EventPublisher fans recorded events out to interested consumers.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// EventRecorder is the observability sink for operation outcomes.
// Record is fire-and-forget: it logs and counts synchronously and
// pushes to the optional MQ and database sinks in the background.
// It never fails or blocks the calling workflow.
type EventRecorder struct {
	logger    *zap.Logger
	publisher EventPublisher              // optional
	events    *repository.EventRepository // optional
}

func NewEventRecorder(log *zap.Logger, publisher EventPublisher, events *repository.EventRepository) *EventRecorder {
	return &EventRecorder{
		logger:    log,
		publisher: publisher,
		events:    events,
	}
}

// Record writes one append-only operation event.
func (r *EventRecorder) Record(ctx context.Context, eventKind, actor string, success bool, detail map[string]any, cause error) {
	ev := &model.OperationEvent{
		EventKind: eventKind,
		Actor:     actor,
		Success:   success,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}

	status := "success"
	if !success {
		status = "failed"
	}
	metrics.IncrementOperationEvent(eventKind, status)

	log := logger.WithTrace(ctx, r.logger)
	fields := []zap.Field{
		zap.String("event_kind", eventKind),
		zap.String("actor", actor),
		zap.Bool("success", success),
		zap.Any("detail", detail),
	}
	if success {
		log.Info("Operation event", fields...)
	} else {
		log.Error("Operation event", append(fields, zap.Error(cause))...)
	}

	if r.publisher != nil {
		go func() {
			if err := r.publisher.Publish("operation."+eventKind, ev); err != nil {
				r.logger.Warn("Failed to publish operation event",
					zap.String("event_kind", eventKind),
					zap.Error(err),
				)
			}
		}()
	}

	if r.events != nil {
		go func() {
			insertCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := r.events.Insert(insertCtx, ev); err != nil {
				r.logger.Warn("Failed to persist operation event",
					zap.String("event_kind", eventKind),
					zap.Error(err),
				)
			}
		}()
	}
}
