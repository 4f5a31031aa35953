package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/pkg/apperr"
	"mailpilot/pkg/logger"
	"mailpilot/pkg/metrics"
)

// IntentService turns free-text user commands into ActionRequests. The
// oracle is the primary interpreter; when it is down or answers with
// something unparseable, a deterministic keyword chain takes over.
// Parse never fails: the worst case is ActionUnknown with confidence 0.
type IntentService struct {
	oracle Oracle
	logger *zap.Logger
}

func NewIntentService(oracle Oracle, log *zap.Logger) *IntentService {
	return &IntentService{
		oracle: oracle,
		logger: log,
	}
}

const intentPromptTemplate = `You are a command parser for an email management assistant. Parse the user's natural language input and return a JSON object.

Available actions:
- read_emails: Fetch emails (can filter by sender, subject, importance)
- generate_replies: Generate AI replies for emails
- send_reply: Send a reply to a specific email
- delete_email: Delete an email by ID, sender, or subject
- categorize_inbox: Group emails into categories
- daily_digest: Generate a daily summary

User input: "%s"

Return ONLY a valid JSON object with this structure:
{
  "action": "action_name",
  "parameters": {
    "filter": "optional filter text",
    "sender": "optional sender",
    "subject": "optional subject keyword",
    "email_id": "optional email ID",
    "reply_content": "optional reply content",
    "count": optional number (default 5)
  },
  "confidence": 0.0-1.0
}

Examples:
Input: "Show me the last few important emails about invoices"
Output: {"action": "read_emails", "parameters": {"subject": "invoices", "count": 5}, "confidence": 0.9}

Input: "Reply to John that I will get back tomorrow"
Output: {"action": "send_reply", "parameters": {"sender": "John", "reply_content": "I will get back tomorrow"}, "confidence": 0.85}

Input: "Delete all promotional emails"
Output: {"action": "delete_email", "parameters": {"subject": "promotional"}, "confidence": 0.8}

Input: "Give me today's email digest"
Output: {"action": "daily_digest", "parameters": {}, "confidence": 0.95}

Input: "Categorize my inbox"
Output: {"action": "categorize_inbox", "parameters": {"count": 20}, "confidence": 0.9}

Now parse: "%s"`

// Parse interprets a command. It always returns a usable ActionRequest.
func (s *IntentService) Parse(ctx context.Context, input string) model.ActionRequest {
	log := logger.WithTrace(ctx, s.logger)

	raw, err := s.oracle.Complete(ctx, buildIntentPrompt(input))
	if err != nil {
		log.Warn("Oracle unavailable for command parsing, using keyword fallback",
			zap.Error(err),
		)
		metrics.IncrementOracleFallback("parse_command")
		return FallbackParse(input)
	}

	req, err := decodeActionRequest(raw)
	if err != nil {
		log.Warn("Oracle returned unparseable intent, using keyword fallback",
			zap.String("response", truncate(raw, 200)),
			zap.Error(err),
		)
		metrics.IncrementOracleFallback("parse_command")
		return FallbackParse(input)
	}

	log.Info("Parsed command via oracle",
		zap.String("action", string(req.Action)),
		zap.Float64("confidence", req.Confidence),
	)
	return req
}

func buildIntentPrompt(input string) string {
	return fmt.Sprintf(intentPromptTemplate, input, input)
}

// decodeActionRequest validates the oracle's answer against the
// expected shape. Anything off-shape is a MalformedResponse error so
// the caller can drop to the keyword path.
func decodeActionRequest(raw string) (model.ActionRequest, error) {
	cleaned := stripCodeFence(raw)

	var req model.ActionRequest
	if err := json.Unmarshal([]byte(cleaned), &req); err != nil {
		return model.ActionRequest{}, apperr.Wrap(apperr.KindMalformedResponse, "intent is not valid JSON", err)
	}
	if !req.Action.Valid() {
		return model.ActionRequest{}, apperr.Newf(apperr.KindMalformedResponse, "unrecognized action %q", req.Action)
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}
	// Zero confidence means the oracle itself wasn't sure; treat the
	// command as not understood rather than guessing.
	if req.Confidence <= 0 {
		return model.ActionRequest{
			Action:     model.ActionUnknown,
			Parameters: map[string]any{},
			Confidence: 0,
		}, nil
	}
	return req, nil
}

// stripCodeFence removes surrounding triple-backtick fences, with or
// without a json tag, that models like to wrap answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// FallbackParse is the deterministic keyword chain. Rules are checked
// in order and the first match wins; no input ever produces an error.
func FallbackParse(input string) model.ActionRequest {
	in := strings.ToLower(input)

	switch {
	case strings.Contains(in, "digest"):
		return model.ActionRequest{
			Action:     model.ActionDailyDigest,
			Parameters: map[string]any{},
			Confidence: 0.7,
		}
	case strings.Contains(in, "categorize") || strings.Contains(in, "group"):
		return model.ActionRequest{
			Action:     model.ActionCategorizeInbox,
			Parameters: map[string]any{"count": 20},
			Confidence: 0.7,
		}
	case strings.Contains(in, "read") || strings.Contains(in, "show") || strings.Contains(in, "fetch"):
		params := map[string]any{"count": 5}
		if strings.Contains(in, "invoice") {
			params["subject"] = "invoice"
		}
		return model.ActionRequest{
			Action:     model.ActionReadEmails,
			Parameters: params,
			Confidence: 0.6,
		}
	case strings.Contains(in, "reply") || strings.Contains(in, "respond"):
		return model.ActionRequest{
			Action:     model.ActionGenerateReplies,
			Parameters: map[string]any{},
			Confidence: 0.6,
		}
	case strings.Contains(in, "delete"):
		return model.ActionRequest{
			Action:     model.ActionDeleteEmail,
			Parameters: map[string]any{},
			Confidence: 0.6,
		}
	default:
		return model.ActionRequest{
			Action:     model.ActionUnknown,
			Parameters: map[string]any{},
			Confidence: 0.0,
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
