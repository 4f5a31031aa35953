package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpilot/internal/model"
)

func TestCategorize(t *testing.T) {
	s := NewClassifyService()

	t.Run("empty inbox still has all four buckets", func(t *testing.T) {
		buckets := s.Categorize(nil)

		require.Len(t, buckets, 4)
		for _, name := range []string{model.CategoryWork, model.CategoryPersonal, model.CategoryPromotions, model.CategoryUrgent} {
			b, ok := buckets[name]
			require.True(t, ok, "missing bucket %s", name)
			assert.Equal(t, 0, b.Count)
			assert.NotNil(t, b.Emails)
		}
		assert.Equal(t, "No urgent emails", buckets[model.CategoryUrgent].Summary)
		assert.Equal(t, "No promotional emails", buckets[model.CategoryPromotions].Summary)
	})

	t.Run("every email lands in exactly one bucket", func(t *testing.T) {
		emails := []model.Email{
			{ID: "1", Subject: "URGENT: server down", Sender: "ops@corp.com"},
			{ID: "2", Subject: "50% off everything", Sender: "promo@shop.com", Snippet: "Huge sale this weekend"},
			{ID: "3", Subject: "Lunch on Saturday?", Sender: "mom@family.net"},
			{ID: "4", Subject: "Project status report", Sender: "pm@corp.com"},
			{ID: "5", Subject: "hello", Sender: "friend@mail.com"},
		}

		buckets := s.Categorize(emails)

		total := 0
		for _, b := range buckets {
			total += b.Count
			assert.Len(t, b.Emails, b.Count)
		}
		assert.Equal(t, len(emails), total)
	})

	t.Run("urgency wins over promotional keywords", func(t *testing.T) {
		buckets := s.Categorize([]model.Email{
			{ID: "1", Subject: "URGENT: last day of our sale", Sender: "promo@shop.com"},
		})

		assert.Equal(t, 1, buckets[model.CategoryUrgent].Count)
		assert.Equal(t, 0, buckets[model.CategoryPromotions].Count)
	})

	t.Run("mixed inbox", func(t *testing.T) {
		buckets := s.Categorize([]model.Email{
			{ID: "1", Subject: "Action required: sign the contract", Sender: "legal@corp.com"},
			{ID: "2", Subject: "Weekly newsletter", Sender: "news@site.com"},
			{ID: "3", Subject: "Photos from the trip", Sender: "sister@family.net"},
		})

		assert.Equal(t, 1, buckets[model.CategoryUrgent].Count)
		assert.Equal(t, 1, buckets[model.CategoryPromotions].Count)
		assert.Equal(t, 1, buckets[model.CategoryPersonal].Count)
		assert.Equal(t, 0, buckets[model.CategoryWork].Count)
		assert.Equal(t, "Found 1 urgent emails", buckets[model.CategoryUrgent].Summary)
		assert.Equal(t, "No work emails", buckets[model.CategoryWork].Summary)
	})

	t.Run("sender address can trigger a category", func(t *testing.T) {
		buckets := s.Categorize([]model.Email{
			{ID: "1", Subject: "hi", Sender: "marketing@shop.com"},
		})
		assert.Equal(t, 1, buckets[model.CategoryPromotions].Count)
	})
}

func TestComposeDigest(t *testing.T) {
	s := NewClassifyService()

	emails := []model.Email{
		{ID: "1", Sender: "ops@corp.com", Subject: "URGENT: disk full", Summary: "Production disk is almost full."},
		{ID: "2", Sender: "boss@corp.com", Subject: "Budget draft", Summary: "Please review the budget draft."},
		{ID: "3", Sender: "news@site.com", Subject: "Weekly roundup", Summary: "Industry news of the week."},
	}

	t.Run("sections and priorities", func(t *testing.T) {
		digest := s.ComposeDigest(emails)

		assert.True(t, strings.HasPrefix(digest, "DAILY EMAIL DIGEST\n==================\n"))
		assert.Contains(t, digest, "URGENT (1)")
		assert.Contains(t, digest, "ACTION REQUIRED (1)")
		assert.Contains(t, digest, "INFORMATIONAL (1)")
		assert.Contains(t, digest, "1. [ops@corp.com] URGENT: disk full: Production disk is almost full.")
		assert.Contains(t, digest, "1. Start with the 1 urgent email(s).")
		assert.Contains(t, digest, "2. Respond to the 1 email(s) awaiting action.")
		assert.Contains(t, digest, "Total emails processed: 3")
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		assert.Equal(t, s.ComposeDigest(emails), s.ComposeDigest(emails))
	})

	t.Run("quiet day", func(t *testing.T) {
		digest := s.ComposeDigest([]model.Email{
			{ID: "1", Sender: "news@site.com", Subject: "Weekly roundup", Summary: "Nothing special."},
		})

		assert.Contains(t, digest, "URGENT (0)\n  (none)")
		assert.Contains(t, digest, "No urgent or action-required emails today.")
		assert.NotContains(t, digest, "Start with the")
	})

	t.Run("empty inbox", func(t *testing.T) {
		digest := s.ComposeDigest(nil)
		assert.Contains(t, digest, "Total emails processed: 0")
		assert.Contains(t, digest, "No urgent or action-required emails today.")
	})

	t.Run("sections are capped but counts are not", func(t *testing.T) {
		var many []model.Email
		for i := 0; i < 8; i++ {
			many = append(many, model.Email{
				ID:      fmt.Sprintf("%d", i),
				Sender:  "ops@corp.com",
				Subject: fmt.Sprintf("urgent issue %d", i),
				Summary: "Needs attention.",
			})
		}

		digest := s.ComposeDigest(many)

		assert.Contains(t, digest, "URGENT (8)")
		assert.Contains(t, digest, "5. [ops@corp.com] urgent issue 4:")
		assert.NotContains(t, digest, "6. [ops@corp.com]")
	})

	t.Run("rank follows original inbox position", func(t *testing.T) {
		digest := s.ComposeDigest([]model.Email{
			{ID: "1", Sender: "news@site.com", Subject: "Roundup", Summary: "News."},
			{ID: "2", Sender: "ops@corp.com", Subject: "urgent outage", Summary: "Down."},
		})
		// the urgent email is second in the inbox, so it keeps rank 2
		assert.Contains(t, digest, "2. [ops@corp.com] urgent outage: Down.")
	})
}
