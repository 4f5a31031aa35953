package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailpilot/internal/model"
)

// EventRepository persists operation events. The table is append-only;
// rows are never updated or deleted.
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, ev *model.OperationEvent) error {
	detail, err := json.Marshal(ev.Detail)
	if err != nil {
		detail = []byte("{}")
	}

	query := `
        INSERT INTO operation_events (event_kind, actor, success, detail, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = r.db.Exec(ctx, query, ev.EventKind, ev.Actor, ev.Success, detail, ev.Error, ev.Timestamp)
	return err
}
