package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/config"
	"mailpilot/internal/model"
	"mailpilot/pkg/apperr"
	"mailpilot/pkg/metrics"
	"mailpilot/pkg/retry"
)

const (
	defaultReadCount       = 5
	defaultCategorizeCount = 20
	fetchChainMaxRetries   = 2
)

// MailboxTransport is the narrow mailbox interface the orchestrator
// depends on. The production implementation is the Postgres mailbox
// repository; tests plug in an in-memory fake.
type MailboxTransport interface {
	ListRecent(ctx context.Context, limit int) ([]model.Email, error)
	FindBySender(ctx context.Context, sender string) (*model.Email, error)
	FindBySubjectKeyword(ctx context.Context, keyword string) (*model.Email, error)
	SendReply(ctx context.Context, messageID, body string) (string, error)
	Trash(ctx context.Context, messageID string) (string, error)
}

// ReplayGuard tracks which messages already got a reply so a repeated
// send within the dedup window is rejected. Release undoes a mark
// whose send never went through. The redis deduper is the production
// implementation.
type ReplayGuard interface {
	AcquireOnce(ctx context.Context, operation, messageID string) bool
	Release(ctx context.Context, operation, messageID string)
}

// DeleteRequest selects which message to delete: by ID, by sender
// (most recent match) or by subject keyword (most recent match). At
// least one criterion is required.
type DeleteRequest struct {
	ID             string `json:"email_id"`
	Sender         string `json:"sender"`
	SubjectKeyword string `json:"subject_keyword"`
}

// CommandService dispatches structured action requests to the mailbox
// transport and the AI services, and aggregates results. Every
// workflow records exactly one terminal operation event.
type CommandService struct {
	mailbox    MailboxTransport
	intent     *IntentService
	ai         *AIService
	classifier *ClassifyService
	recorder   *EventRecorder
	deduper    ReplayGuard // optional
	retryCfg   config.RetryConfig
	logger     *zap.Logger
}

func NewCommandService(
	mailbox MailboxTransport,
	intent *IntentService,
	ai *AIService,
	classifier *ClassifyService,
	recorder *EventRecorder,
	deduper ReplayGuard,
	retryCfg config.RetryConfig,
	log *zap.Logger,
) *CommandService {
	return &CommandService{
		mailbox:    mailbox,
		intent:     intent,
		ai:         ai,
		classifier: classifier,
		recorder:   recorder,
		deduper:    deduper,
		retryCfg:   retryCfg,
		logger:     log,
	}
}

// ExecuteCommand interprets a natural-language command and runs the
// resolved action. An unrecognized command is a "not understood"
// result, not an error.
func (s *CommandService) ExecuteCommand(ctx context.Context, actor, command string) (*model.CommandResult, error) {
	req := s.intent.Parse(ctx, command)

	result, err := s.dispatch(ctx, actor, req)
	if err != nil {
		s.recorder.Record(ctx, EventUserCommand, actor, false, map[string]any{
			"command": command,
			"action":  string(req.Action),
		}, err)
		metrics.IncrementCommand(string(req.Action), "failed")
		return nil, err
	}

	s.recorder.Record(ctx, EventUserCommand, actor, true, map[string]any{
		"command": command,
		"action":  string(req.Action),
	}, nil)
	metrics.IncrementCommand(string(req.Action), "success")
	return result, nil
}

func (s *CommandService) dispatch(ctx context.Context, actor string, req model.ActionRequest) (*model.CommandResult, error) {
	result := &model.CommandResult{
		Action:     req.Action,
		Confidence: req.Confidence,
	}

	switch req.Action {
	case model.ActionReadEmails:
		emails, err := s.ReadEmails(ctx, actor,
			intParam(req.Parameters, "count", defaultReadCount),
			stringParam(req.Parameters, "subject"),
			stringParam(req.Parameters, "sender"),
		)
		if err != nil {
			return nil, err
		}
		result.Message = fmt.Sprintf("Fetched %d emails", len(emails))
		result.Data = emails

	case model.ActionGenerateReplies:
		count := intParam(req.Parameters, "count", defaultReadCount)
		emails, err := s.ReadEmails(ctx, actor, count, "", "")
		if err != nil {
			return nil, err
		}
		replies := s.GenerateReplies(ctx, actor, emails)
		result.Message = fmt.Sprintf("Generated %d replies", len(replies))
		result.Data = replies

	case model.ActionSendReply:
		content := stringParam(req.Parameters, "reply_content")
		messageID := stringParam(req.Parameters, "email_id")
		sender := stringParam(req.Parameters, "sender")
		sentID, err := s.SendReplyTo(ctx, actor, messageID, sender, content)
		if err != nil {
			return nil, err
		}
		result.Message = "Reply sent successfully"
		result.Data = map[string]any{"sent_id": sentID}

	case model.ActionDeleteEmail:
		deletedID, err := s.DeleteEmail(ctx, actor, DeleteRequest{
			ID:             stringParam(req.Parameters, "email_id"),
			Sender:         stringParam(req.Parameters, "sender"),
			SubjectKeyword: stringParam(req.Parameters, "subject"),
		})
		if err != nil {
			return nil, err
		}
		result.Message = "Email deleted successfully"
		result.Data = map[string]any{"deleted_id": deletedID}

	case model.ActionCategorizeInbox:
		buckets, err := s.CategorizeInbox(ctx, actor, intParam(req.Parameters, "count", defaultCategorizeCount))
		if err != nil {
			return nil, err
		}
		result.Message = "Inbox categorized"
		result.Data = buckets

	case model.ActionDailyDigest:
		digest, err := s.DailyDigest(ctx, actor)
		if err != nil {
			return nil, err
		}
		result.Message = "Daily digest ready"
		result.Data = digest

	default:
		result.Action = model.ActionUnknown
		result.Message = "Sorry, I didn't understand that. Try \"read my emails\", \"categorize my inbox\" or \"give me today's digest\"."
	}

	return result, nil
}

// ReadEmails fetches the most recent messages, optionally filtered by
// subject or sender keyword, and enriches each with a summary. The
// enrichment runs sequentially in input order.
func (s *CommandService) ReadEmails(ctx context.Context, actor string, count int, subjectFilter, senderFilter string) ([]model.Email, error) {
	if count <= 0 {
		count = defaultReadCount
	}

	emails, err := s.mailbox.ListRecent(ctx, count)
	if err != nil {
		s.recorder.Record(ctx, EventEmailAction, actor, false, map[string]any{
			"action": "read_emails",
			"count":  count,
		}, err)
		return nil, err
	}

	emails = filterEmails(emails, subjectFilter, senderFilter)

	for i := range emails {
		emails[i].Summary = s.ai.Summarize(ctx, &emails[i])
	}

	s.recorder.Record(ctx, EventEmailAction, actor, true, map[string]any{
		"action": "read_emails",
		"count":  len(emails),
	}, nil)
	return emails, nil
}

// GenerateReplies drafts a reply for each supplied email. Failures are
// absorbed per message, so the slice always lines up with the input.
func (s *CommandService) GenerateReplies(ctx context.Context, actor string, emails []model.Email) []string {
	replies := make([]string, 0, len(emails))
	for i := range emails {
		replies = append(replies, s.ai.GenerateReply(ctx, &emails[i]))
	}

	s.recorder.Record(ctx, EventAICall, actor, true, map[string]any{
		"action": "generate_replies",
		"count":  len(replies),
	}, nil)
	return replies
}

// SendReply sends a reply to the message with the given ID.
func (s *CommandService) SendReply(ctx context.Context, actor, messageID, content string) (string, error) {
	return s.SendReplyTo(ctx, actor, messageID, "", content)
}

// SendReplyTo resolves the target message by ID or, failing that, by
// sender, then stores the outbound reply. A replayed send within the
// dedup window is rejected.
func (s *CommandService) SendReplyTo(ctx context.Context, actor, messageID, sender, content string) (string, error) {
	fail := func(err error) (string, error) {
		s.recorder.Record(ctx, EventEmailAction, actor, false, map[string]any{
			"action":     "send_reply",
			"message_id": messageID,
		}, err)
		return "", err
	}

	if strings.TrimSpace(content) == "" {
		return fail(apperr.New(apperr.KindInvalidRequest, "reply content is required"))
	}

	if messageID == "" {
		if sender == "" {
			return fail(apperr.New(apperr.KindInvalidRequest, "must provide email_id or sender"))
		}
		target, err := s.mailbox.FindBySender(ctx, sender)
		if err != nil {
			return fail(err)
		}
		messageID = target.ID
	}

	if s.deduper != nil && !s.deduper.AcquireOnce(ctx, "send_reply", messageID) {
		return fail(apperr.Newf(apperr.KindInvalidRequest, "a reply to message %q was already sent moments ago", messageID))
	}

	sentID, err := s.mailbox.SendReply(ctx, messageID, content)
	if err != nil {
		// nothing was sent, so the replay mark must not outlive the
		// failure or a legitimate retry would be rejected for the TTL
		if s.deduper != nil {
			s.deduper.Release(ctx, "send_reply", messageID)
		}
		return fail(err)
	}

	s.recorder.Record(ctx, EventEmailAction, actor, true, map[string]any{
		"action":     "send_reply",
		"message_id": messageID,
		"sent_id":    sentID,
	}, nil)
	return sentID, nil
}

// DeleteEmail trashes a message selected by ID, sender or subject
// keyword. No matching message is a NotFound failure; a request with
// no criterion at all is rejected without touching the mailbox.
func (s *CommandService) DeleteEmail(ctx context.Context, actor string, req DeleteRequest) (string, error) {
	fail := func(err error) (string, error) {
		s.recorder.Record(ctx, EventEmailAction, actor, false, map[string]any{
			"action": "delete_email",
		}, err)
		return "", err
	}

	messageID := req.ID
	switch {
	case messageID != "":
		// delete directly by ID
	case req.Sender != "":
		target, err := s.mailbox.FindBySender(ctx, req.Sender)
		if err != nil {
			return fail(err)
		}
		messageID = target.ID
	case req.SubjectKeyword != "":
		target, err := s.mailbox.FindBySubjectKeyword(ctx, req.SubjectKeyword)
		if err != nil {
			return fail(err)
		}
		messageID = target.ID
	default:
		return fail(apperr.New(apperr.KindInvalidRequest, "must provide email_id, sender, or subject_keyword"))
	}

	deletedID, err := s.mailbox.Trash(ctx, messageID)
	if err != nil {
		return fail(err)
	}

	s.recorder.Record(ctx, EventEmailAction, actor, true, map[string]any{
		"action":     "delete_email",
		"deleted_id": deletedID,
	}, nil)
	return deletedID, nil
}

// CategorizeInbox fetches and summarizes recent messages, then buckets
// them with the deterministic classifier. The oracle is deliberately
// not consulted for the categorization itself.
func (s *CommandService) CategorizeInbox(ctx context.Context, actor string, count int) (map[string]*model.CategoryBucket, error) {
	if count <= 0 {
		count = defaultCategorizeCount
	}

	emails, err := s.fetchAndSummarize(ctx, actor, "categorize_inbox", count)
	if err != nil {
		s.recorder.Record(ctx, EventEmailAction, actor, false, map[string]any{
			"action": "categorize_inbox",
			"count":  count,
		}, err)
		return nil, err
	}

	buckets := s.classifier.Categorize(emails)

	s.recorder.Record(ctx, EventEmailAction, actor, true, map[string]any{
		"action": "categorize_inbox",
		"count":  len(emails),
	}, nil)
	return buckets, nil
}

// DailyDigest fetches and summarizes recent messages and renders the
// digest text.
func (s *CommandService) DailyDigest(ctx context.Context, actor string) (string, error) {
	emails, err := s.fetchAndSummarize(ctx, actor, "daily_digest", defaultCategorizeCount)
	if err != nil {
		s.recorder.Record(ctx, EventEmailAction, actor, false, map[string]any{
			"action": "daily_digest",
		}, err)
		return "", err
	}

	digest := s.classifier.ComposeDigest(emails)

	s.recorder.Record(ctx, EventEmailAction, actor, true, map[string]any{
		"action": "daily_digest",
		"count":  len(emails),
	}, nil)
	return digest, nil
}

// fetchAndSummarize is the two-step network chain (fetch, then
// per-message summarize) shared by categorize and digest. The chain is
// retried with backoff because partial upstream failure is common
// here; permanent failures stop the retry loop early.
func (s *CommandService) fetchAndSummarize(ctx context.Context, actor, operation string, count int) ([]model.Email, error) {
	cfg := retry.Config{
		MaxRetries: fetchChainMaxRetries,
		BaseDelay:  s.retryCfg.BaseDelay(),
		MaxDelay:   s.retryCfg.MaxDelay(),
		Retryable:  apperr.Retryable,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			metrics.IncrementRetryAttempt(operation)
			s.recorder.Record(ctx, EventRetryAttempt, actor, false, map[string]any{
				"operation": operation,
				"attempt":   attempt,
				"delay_ms":  delay.Milliseconds(),
			}, err)
		},
	}

	return retry.Do(ctx, cfg, func(ctx context.Context) ([]model.Email, error) {
		emails, err := s.mailbox.ListRecent(ctx, count)
		if err != nil {
			return nil, err
		}
		for i := range emails {
			emails[i].Summary = s.ai.Summarize(ctx, &emails[i])
		}
		return emails, nil
	})
}

func filterEmails(emails []model.Email, subjectFilter, senderFilter string) []model.Email {
	if subjectFilter == "" && senderFilter == "" {
		return emails
	}
	filtered := make([]model.Email, 0, len(emails))
	for _, e := range emails {
		if subjectFilter != "" && !strings.Contains(strings.ToLower(e.Subject), strings.ToLower(subjectFilter)) {
			continue
		}
		if senderFilter != "" && !strings.Contains(strings.ToLower(e.Sender), strings.ToLower(senderFilter)) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// intParam reads a numeric parameter that may arrive as int, float64
// (JSON round-trip) or string.
func intParam(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return fallback
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
