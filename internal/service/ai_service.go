package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/internal/repository"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/metrics"
)

const (
	summaryBodyLimit = 1000
	replyBodyLimit   = 800
	excerptLimit     = 160
)

// AIService generates message summaries and reply drafts through the
// oracle. Neither path ever surfaces an oracle failure: summaries fall
// back to a body excerpt and replies to a fixed apology line.
type AIService struct {
	oracle Oracle
	cache  *repository.SummaryCache // optional
	logger *zap.Logger
}

func NewAIService(oracle Oracle, cache *repository.SummaryCache, log *zap.Logger) *AIService {
	return &AIService{
		oracle: oracle,
		cache:  cache,
		logger: log,
	}
}

const summaryPromptTemplate = `Summarize the following email in 2-3 concise sentences. Focus on the main point and any action items.

Email content:
%s

Summary:`

// Summarize returns a short summary of the email body. Oracle failure
// degrades to a truncated body excerpt; this fallback is local and the
// caller never sees an error.
func (s *AIService) Summarize(ctx context.Context, e *model.Email) string {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, e.ID); ok {
			return cached
		}
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, truncate(e.Body, summaryBodyLimit))
	text, err := s.oracle.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.WithTrace(ctx, s.logger).Warn("Summary generation fell back to body excerpt",
			zap.String("message_id", e.ID),
			zap.Error(err),
		)
		metrics.IncrementOracleFallback("summarize")
		return bodyExcerpt(e.Body)
	}

	summary := strings.TrimSpace(text)
	if s.cache != nil {
		s.cache.Set(ctx, e.ID, summary)
	}
	return summary
}

const replyPromptTemplate = `Generate a professional and context-aware email reply based on the following email.

From: %s
Subject: %s
Summary: %s

Original email:
%s

Write a clear, professional, and helpful reply. Keep it concise (2-4 short paragraphs).
Do not include greetings like "Dear" or sign-offs - just the body of the reply.

Reply:`

// GenerateReply drafts a reply for the email. On oracle failure it
// returns a fixed apologetic line instead of an error.
func (s *AIService) GenerateReply(ctx context.Context, e *model.Email) string {
	prompt := fmt.Sprintf(replyPromptTemplate, e.Sender, e.Subject, e.Summary, truncate(e.Body, replyBodyLimit))

	text, err := s.oracle.Complete(ctx, prompt)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Reply generation failed",
			zap.String("message_id", e.ID),
			zap.Error(err),
		)
		metrics.IncrementOracleFallback("generate_reply")
		return fmt.Sprintf("Unable to generate reply: %v", err)
	}

	return strings.TrimSpace(text)
}

// bodyExcerpt is the deterministic summary fallback: the body
// collapsed to one line and cut at a fixed length.
func bodyExcerpt(body string) string {
	flat := strings.Join(strings.Fields(body), " ")
	runes := []rune(flat)
	if len(runes) <= excerptLimit {
		return flat
	}
	return string(runes[:excerptLimit]) + "..."
}
