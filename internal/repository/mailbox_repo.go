package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailpilot/internal/model"
	"mailpilot/internal/util"
	"mailpilot/pkg/apperr"
	"mailpilot/pkg/metrics"
)

// MailboxRepository is the Postgres-backed mailbox transport:
// messages live in the messages table, outbound replies in
// sent_replies.
type MailboxRepository struct {
	db *pgxpool.Pool
}

func NewMailboxRepository(db *pgxpool.Pool) *MailboxRepository {
	return &MailboxRepository{db: db}
}

const emailColumns = `id, thread_id, sender, subject, body, snippet, received_at`

func scanEmail(row pgx.Row) (*model.Email, error) {
	var e model.Email
	err := row.Scan(
		&e.ID,
		&e.ThreadID,
		&e.Sender,
		&e.Subject,
		&e.Body,
		&e.Snippet,
		&e.Date,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListRecent returns the most recent non-trashed messages, newest
// first.
func (r *MailboxRepository) ListRecent(ctx context.Context, limit int) ([]model.Email, error) {
	started := time.Now()
	query := `
        SELECT ` + emailColumns + `
        FROM messages
        WHERE NOT trashed
        ORDER BY received_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		metrics.RecordMailboxCallDuration("list_recent", "failed", time.Since(started))
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to list messages", err)
	}
	defer rows.Close()

	emails := []model.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			metrics.RecordMailboxCallDuration("list_recent", "failed", time.Since(started))
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to scan message", err)
		}
		emails = append(emails, *e)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordMailboxCallDuration("list_recent", "failed", time.Since(started))
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to read messages", err)
	}

	metrics.RecordMailboxCallDuration("list_recent", "success", time.Since(started))
	return emails, nil
}

// FindByID returns a single non-trashed message.
func (r *MailboxRepository) FindByID(ctx context.Context, id string) (*model.Email, error) {
	query := `
        SELECT ` + emailColumns + `
        FROM messages
        WHERE id = $1 AND NOT trashed
    `
	e, err := scanEmail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "no message with id %q", id)
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to load message", err)
	}
	return e, nil
}

// FindBySender returns the most recent non-trashed message whose
// sender contains the given text, case-insensitively.
func (r *MailboxRepository) FindBySender(ctx context.Context, sender string) (*model.Email, error) {
	query := `
        SELECT ` + emailColumns + `
        FROM messages
        WHERE sender ILIKE '%' || $1 || '%' AND NOT trashed
        ORDER BY received_at DESC
        LIMIT 1
    `
	e, err := scanEmail(r.db.QueryRow(ctx, query, sender))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "no messages from %q", sender)
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to search by sender", err)
	}
	return e, nil
}

// FindBySubjectKeyword returns the most recent non-trashed message
// whose subject contains the keyword, case-insensitively.
func (r *MailboxRepository) FindBySubjectKeyword(ctx context.Context, keyword string) (*model.Email, error) {
	query := `
        SELECT ` + emailColumns + `
        FROM messages
        WHERE subject ILIKE '%' || $1 || '%' AND NOT trashed
        ORDER BY received_at DESC
        LIMIT 1
    `
	e, err := scanEmail(r.db.QueryRow(ctx, query, keyword))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.KindNotFound, "no messages with subject containing %q", keyword)
		}
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to search by subject", err)
	}
	return e, nil
}

// SendReply stores an outbound reply threaded onto the original
// message and returns the new reply's ID. The subject gets the "Re: "
// prefix if the original doesn't carry one yet.
func (r *MailboxRepository) SendReply(ctx context.Context, messageID, body string) (string, error) {
	started := time.Now()

	original, err := r.FindByID(ctx, messageID)
	if err != nil {
		metrics.RecordMailboxCallDuration("send_reply", "failed", time.Since(started))
		return "", err
	}

	subject := original.Subject
	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}

	sentID := util.NewMessageID()
	query := `
        INSERT INTO sent_replies (id, in_reply_to, thread_id, recipient, subject, body, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	_, err = r.db.Exec(ctx, query, sentID, original.ID, original.ThreadID, original.Sender, subject, body)
	if err != nil {
		metrics.RecordMailboxCallDuration("send_reply", "failed", time.Since(started))
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to store reply", err)
	}

	metrics.RecordMailboxCallDuration("send_reply", "success", time.Since(started))
	return sentID, nil
}

// Trash marks a message deleted and returns its ID. A message that
// doesn't exist (or is already trashed) is a NotFound failure, not an
// empty success.
func (r *MailboxRepository) Trash(ctx context.Context, messageID string) (string, error) {
	started := time.Now()
	query := `
        UPDATE messages
        SET trashed = TRUE
        WHERE id = $1 AND NOT trashed
    `
	tag, err := r.db.Exec(ctx, query, messageID)
	if err != nil {
		metrics.RecordMailboxCallDuration("trash", "failed", time.Since(started))
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "failed to trash message", err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordMailboxCallDuration("trash", "failed", time.Since(started))
		return "", apperr.Newf(apperr.KindNotFound, "no message with id %q", messageID)
	}

	metrics.RecordMailboxCallDuration("trash", "success", time.Since(started))
	return messageID, nil
}
