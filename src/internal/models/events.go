package models

import "time"

// PresenceEvent is published for every tracker outcome the presentation
// collaborator might render, and for reconciliation items.
type PresenceEvent struct {
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Since      time.Time `json:"since,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Duration   string    `json:"duration,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Presence event kinds
const (
	KindAfkOpened    = "afk.opened"
	KindAfkClosed    = "afk.closed"
	KindAfkStatus    = "afk.status"
	KindAfkReconcile = "afk.reconcile"
	KindAfkAlready   = "afk.already"
	KindAfkFailed    = "afk.failed"
)

// SetAwayRequest asks the tracker to open an active session. Emitted by the
// bot frontend after it has parsed the away command; this service never
// parses command text itself.
type SetAwayRequest struct {
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundMessage is the gateway's view of a chat message. Formatting,
// attachments and everything else stays with the gateway producer.
type InboundMessage struct {
	MessageID  string    `json:"message_id"`
	UserID     string    `json:"user_id"`
	ChannelID  string    `json:"channel_id"`
	Content    string    `json:"content"`
	MentionIDs []string  `json:"mention_ids,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
