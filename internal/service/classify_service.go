package service

import (
	"fmt"
	"strings"

	"mailpilot/internal/model"
)

// ClassifyService is the deterministic keyword categorizer and digest
// composer. It is the default engine for inbox categorization and the
// fallback for everything the oracle can't do; both entry points are
// pure functions of their input.
type ClassifyService struct{}

func NewClassifyService() *ClassifyService {
	return &ClassifyService{}
}

// categoryOrder is the tie-break precedence: urgency preempts
// marketing and work classification. Personal is the default when
// nothing matches.
var categoryOrder = []string{
	model.CategoryUrgent,
	model.CategoryPromotions,
	model.CategoryWork,
}

var categoryKeywords = map[string][]string{
	model.CategoryUrgent: {
		"urgent", "asap", "important", "critical", "deadline", "immediately", "action required",
	},
	model.CategoryPromotions: {
		"sale", "offer", "discount", "deal", "promo", "subscribe", "unsubscribe", "newsletter", "marketing",
	},
	model.CategoryWork: {
		"meeting", "project", "deadline", "team", "client", "report", "proposal", "contract", "business",
	},
}

var categoryLabels = map[string]string{
	model.CategoryWork:       "work",
	model.CategoryPersonal:   "personal",
	model.CategoryPromotions: "promotional",
	model.CategoryUrgent:     "urgent",
}

// Categorize assigns every email to exactly one of the four fixed
// buckets. All four buckets are always present, even when empty.
func (s *ClassifyService) Categorize(emails []model.Email) map[string]*model.CategoryBucket {
	buckets := map[string]*model.CategoryBucket{
		model.CategoryWork:       {Name: model.CategoryWork, Emails: []model.Email{}},
		model.CategoryPersonal:   {Name: model.CategoryPersonal, Emails: []model.Email{}},
		model.CategoryPromotions: {Name: model.CategoryPromotions, Emails: []model.Email{}},
		model.CategoryUrgent:     {Name: model.CategoryUrgent, Emails: []model.Email{}},
	}

	for _, e := range emails {
		blob := strings.ToLower(e.Subject + " " + e.Sender + " " + e.Snippet)

		name := model.CategoryPersonal
		for _, category := range categoryOrder {
			if containsAny(blob, categoryKeywords[category]) {
				name = category
				break
			}
		}

		b := buckets[name]
		b.Emails = append(b.Emails, e)
		b.Count++
	}

	for name, b := range buckets {
		b.Summary = bucketSummary(name, b.Count)
	}

	return buckets
}

func bucketSummary(name string, count int) string {
	label := categoryLabels[name]
	if count == 0 {
		return fmt.Sprintf("No %s emails", label)
	}
	return fmt.Sprintf("Found %d %s emails", count, label)
}

// Digest partitioning uses a smaller keyword set over subject plus the
// AI summary, not the snippet blob used for categorization.
var digestUrgentKeywords = []string{
	"urgent", "asap", "important", "critical", "deadline", "immediately",
}

var digestActionKeywords = []string{
	"reply", "respond", "approve", "review", "action required", "please", "need",
}

const digestSectionLimit = 5

type digestEntry struct {
	rank    int
	sender  string
	subject string
	summary string
}

// ComposeDigest renders the daily digest text. Identical input always
// yields byte-identical output.
func (s *ClassifyService) ComposeDigest(emails []model.Email) string {
	var urgent, action, info []digestEntry

	for i, e := range emails {
		blob := strings.ToLower(e.Subject + " " + e.Summary)
		entry := digestEntry{
			rank:    i + 1,
			sender:  e.Sender,
			subject: e.Subject,
			summary: e.Summary,
		}

		switch {
		case containsAny(blob, digestUrgentKeywords):
			urgent = append(urgent, entry)
		case containsAny(blob, digestActionKeywords):
			action = append(action, entry)
		default:
			info = append(info, entry)
		}
	}

	var b strings.Builder
	b.WriteString("DAILY EMAIL DIGEST\n")
	b.WriteString("==================\n\n")

	writeDigestSection(&b, "URGENT", urgent)
	writeDigestSection(&b, "ACTION REQUIRED", action)
	writeDigestSection(&b, "INFORMATIONAL", info)

	b.WriteString("Recommended priorities:\n")
	if len(urgent) == 0 && len(action) == 0 {
		b.WriteString("  No urgent or action-required emails today.\n")
	} else {
		if len(urgent) > 0 {
			fmt.Fprintf(&b, "  1. Start with the %d urgent email(s).\n", len(urgent))
		} else {
			b.WriteString("  1. Nothing urgent today.\n")
		}
		if len(action) > 0 {
			fmt.Fprintf(&b, "  2. Respond to the %d email(s) awaiting action.\n", len(action))
		} else {
			b.WriteString("  2. Nothing is waiting on a reply.\n")
		}
		fmt.Fprintf(&b, "  3. Review the %d informational email(s) when time allows.\n", len(info))
	}

	fmt.Fprintf(&b, "\nTotal emails processed: %d\n", len(emails))

	return b.String()
}

func writeDigestSection(b *strings.Builder, title string, entries []digestEntry) {
	fmt.Fprintf(b, "%s (%d)\n", title, len(entries))
	if len(entries) == 0 {
		b.WriteString("  (none)\n\n")
		return
	}
	shown := entries
	if len(shown) > digestSectionLimit {
		shown = shown[:digestSectionLimit]
	}
	for _, e := range shown {
		fmt.Fprintf(b, "  %d. [%s] %s: %s\n", e.rank, e.sender, e.subject, e.summary)
	}
	b.WriteString("\n")
}

func containsAny(blob string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(blob, kw) {
			return true
		}
	}
	return false
}
