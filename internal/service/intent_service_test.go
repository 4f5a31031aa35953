package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mailpilot/internal/model"
	"mailpilot/pkg/apperr"
)

// fakeOracle is a scripted completion backend shared by the service
// tests in this package.
type fakeOracle struct {
	response string
	err      error
	calls    int
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func downOracle() *fakeOracle {
	return &fakeOracle{err: apperr.New(apperr.KindUpstreamUnavailable, "oracle unreachable")}
}

func TestParse_OracleAnswers(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action": "read_emails", "parameters": {"subject": "invoices", "count": 5}, "confidence": 0.9}`}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "Show me emails about invoices")

		assert.Equal(t, model.ActionReadEmails, req.Action)
		assert.Equal(t, "invoices", req.Parameters["subject"])
		assert.InDelta(t, 0.9, req.Confidence, 1e-9)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		oracle := &fakeOracle{response: "```json\n{\"action\": \"daily_digest\", \"parameters\": {}, \"confidence\": 0.95}\n```"}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "Give me today's email digest")

		assert.Equal(t, model.ActionDailyDigest, req.Action)
		assert.InDelta(t, 0.95, req.Confidence, 1e-9)
	})

	t.Run("missing parameters object is tolerated", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action": "daily_digest", "confidence": 0.8}`}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "digest please")

		assert.Equal(t, model.ActionDailyDigest, req.Action)
		assert.NotNil(t, req.Parameters)
	})

	t.Run("zero confidence means not understood", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action": "delete_email", "parameters": {}, "confidence": 0}`}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "hmm")

		assert.Equal(t, model.ActionUnknown, req.Action)
		assert.Zero(t, req.Confidence)
	})
}

func TestParse_FallsBackToKeywords(t *testing.T) {
	t.Run("oracle down", func(t *testing.T) {
		s := NewIntentService(downOracle(), zap.NewNop())

		req := s.Parse(context.Background(), "Give me today's email digest")

		assert.Equal(t, model.ActionDailyDigest, req.Action)
		assert.InDelta(t, 0.7, req.Confidence, 1e-9)
	})

	t.Run("oracle returns prose instead of JSON", func(t *testing.T) {
		oracle := &fakeOracle{response: "Sure! You want to categorize your inbox."}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "Categorize my inbox")

		assert.Equal(t, model.ActionCategorizeInbox, req.Action)
		assert.Equal(t, 20, req.Parameters["count"])
	})

	t.Run("oracle invents an action name", func(t *testing.T) {
		oracle := &fakeOracle{response: `{"action": "archive_everything", "parameters": {}, "confidence": 0.9}`}
		s := NewIntentService(oracle, zap.NewNop())

		req := s.Parse(context.Background(), "read my emails")

		assert.Equal(t, model.ActionReadEmails, req.Action)
		assert.InDelta(t, 0.6, req.Confidence, 1e-9)
	})
}

func TestFallbackParse(t *testing.T) {
	cases := []struct {
		input      string
		action     model.Action
		confidence float64
		params     map[string]any
	}{
		{"Give me today's email digest", model.ActionDailyDigest, 0.7, map[string]any{}},
		{"Categorize my inbox", model.ActionCategorizeInbox, 0.7, map[string]any{"count": 20}},
		{"Group my messages", model.ActionCategorizeInbox, 0.7, map[string]any{"count": 20}},
		{"Read my latest emails", model.ActionReadEmails, 0.6, map[string]any{"count": 5}},
		{"Show me the invoice emails", model.ActionReadEmails, 0.6, map[string]any{"count": 5, "subject": "invoice"}},
		{"Reply to the last message", model.ActionGenerateReplies, 0.6, map[string]any{}},
		{"Delete the spam", model.ActionDeleteEmail, 0.6, map[string]any{}},
		{"What's the weather like?", model.ActionUnknown, 0.0, map[string]any{}},
		{"", model.ActionUnknown, 0.0, map[string]any{}},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			req := FallbackParse(tc.input)
			assert.Equal(t, tc.action, req.Action)
			assert.InDelta(t, tc.confidence, req.Confidence, 1e-9)
			assert.Equal(t, tc.params, req.Parameters)
		})
	}
}

func TestFallbackParse_DigestWinsOverRead(t *testing.T) {
	// "show" and "digest" both match; digest is checked first
	req := FallbackParse("Show me the digest")
	assert.Equal(t, model.ActionDailyDigest, req.Action)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}
