package model

import "time"

// Email is one mailbox message. Summary is filled in by the AI
// enrichment stage and stays empty until then.
type Email struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Sender   string    `json:"sender"`
	Subject  string    `json:"subject"`
	Date     time.Time `json:"date"`
	Body     string    `json:"body"`
	Snippet  string    `json:"snippet"`
	Summary  string    `json:"summary,omitempty"`
}

// Inbox category names. Every categorization result contains exactly
// these four buckets.
const (
	CategoryWork       = "Work"
	CategoryPersonal   = "Personal"
	CategoryPromotions = "Promotions"
	CategoryUrgent     = "Urgent"
)

// CategoryBucket is one partition of a categorized inbox.
type CategoryBucket struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Summary string  `json:"summary"`
	Emails  []Email `json:"emails"`
}
