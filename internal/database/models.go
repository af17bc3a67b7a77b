package database

import (
	"database/sql"
	"time"
)

// Message is the durable representation of a conversation log entry. The row
// is immutable once written except for feedback_rating and the report fields,
// which are set exactly once by downstream review actions.
type Message struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Content     string    `db:"content"`
	IsUser      bool      `db:"is_user"`
	SenderKind  string    `db:"sender_kind"`
	AgentDomain string    `db:"agent_domain"`
	IntentLabel string    `db:"intent_label"`
	Timestamp   time.Time `db:"timestamp"`

	FeedbackRating sql.NullInt64 `db:"feedback_rating"`
	Reported       bool          `db:"reported"`
	ReportReason   string        `db:"report_reason"`
}

// Setting is a durable key/value settings record. Values are opaque to the
// store; callers serialize structured settings as JSON.
type Setting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
