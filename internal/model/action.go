package model

// Action names the operation a parsed user command maps to.
type Action string

const (
	ActionReadEmails      Action = "read_emails"
	ActionGenerateReplies Action = "generate_replies"
	ActionSendReply       Action = "send_reply"
	ActionDeleteEmail     Action = "delete_email"
	ActionCategorizeInbox Action = "categorize_inbox"
	ActionDailyDigest     Action = "daily_digest"
	ActionUnknown         Action = "unknown"
)

// Valid reports whether a is one of the recognized actions, including
// the explicit unknown terminal state.
func (a Action) Valid() bool {
	switch a {
	case ActionReadEmails, ActionGenerateReplies, ActionSendReply,
		ActionDeleteEmail, ActionCategorizeInbox, ActionDailyDigest,
		ActionUnknown:
		return true
	}
	return false
}

// ActionRequest is the structured result of interpreting one
// natural-language command. It is immutable after creation; Confidence
// is advisory only.
type ActionRequest struct {
	Action     Action         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
}

// CommandResult is what a natural-language command returns to the
// request layer: the resolved action, a human-readable status line and
// the action's payload.
type CommandResult struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Data       any     `json:"data,omitempty"`
}
