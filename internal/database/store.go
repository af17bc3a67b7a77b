package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for database operations. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a new message record.
	SaveMessage(ctx context.Context, message *Message) error

	// RecentMessages retrieves the most recent 'limit' messages in
	// chronological order.
	RecentMessages(ctx context.Context, limit int) ([]Message, error)

	// SetFeedbackRating records a feedback rating for a message. The rating
	// is written exactly once; a second attempt returns an error.
	SetFeedbackRating(ctx context.Context, messageID string, rating int) error

	// MarkReported flags a message as reported with a reason. The flag is
	// written exactly once; a second attempt returns an error.
	MarkReported(ctx context.Context, messageID string, reason string) error

	// DeleteAllMessages deletes the entire message log (used by the
	// conversation clear operation).
	DeleteAllMessages(ctx context.Context) error

	// DeleteMessagesBefore deletes messages older than the cutoff (used by
	// the retention cleanup task). Returns the number of rows removed.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// GetSetting retrieves a settings value by key. Returns ErrNotFound when
	// the key has never been written.
	GetSetting(ctx context.Context, key string) (string, error)

	// SaveSetting inserts or updates a settings value.
	SaveSetting(ctx context.Context, key, value string) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ID == "" {
		return fmt.Errorf("message must have a non-empty id")
	}
	if message.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	if message.Timestamp.IsZero() {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	now := time.Now().UTC()
	message.CreatedAt = now
	message.UpdatedAt = now

	query := `
        INSERT INTO messages (id, content, is_user, sender_kind, agent_domain, intent_label,
                              feedback_rating, reported, report_reason, timestamp, created_at, updated_at)
        VALUES (:id, :content, :is_user, :sender_kind, :agent_domain, :intent_label,
                :feedback_rating, :reported, :report_reason, :timestamp, :created_at, :updated_at);
    `

	if _, err := s.db.NamedExecContext(ctx, query, message); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "message_id", message.ID, "error", err)
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully", "message_id", message.ID, "sender_kind", message.SenderKind)
	return nil
}

func (s *sqlxStore) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "default_limit", limit)
	} else if limit > 500 {
		limit = 500
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "capped_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, content, is_user, sender_kind, agent_domain, intent_label,
               feedback_rating, reported, report_reason, timestamp, created_at, updated_at
        FROM (
            SELECT * FROM messages ORDER BY timestamp DESC LIMIT ?
        ) ORDER BY timestamp ASC;
    `

	if err := s.db.SelectContext(ctx, &messages, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages successfully", "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) SetFeedbackRating(ctx context.Context, messageID string, rating int) error {
	if messageID == "" {
		return fmt.Errorf("message id cannot be empty")
	}

	// feedback_rating IS NULL guards the write-once invariant.
	query := `
        UPDATE messages
        SET feedback_rating = ?, updated_at = ?
        WHERE id = ? AND feedback_rating IS NULL;
    `

	result, err := s.db.ExecContext(ctx, query, rating, time.Now().UTC(), messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error setting feedback rating", "message_id", messageID, "error", err)
		return fmt.Errorf("failed to set feedback rating for %s: %w", messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check feedback update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s not found or already rated: %w", messageID, ErrNotFound)
	}

	s.logger.DebugContext(ctx, "Feedback rating recorded", "message_id", messageID, "rating", rating)
	return nil
}

func (s *sqlxStore) MarkReported(ctx context.Context, messageID string, reason string) error {
	if messageID == "" {
		return fmt.Errorf("message id cannot be empty")
	}

	query := `
        UPDATE messages
        SET reported = 1, report_reason = ?, updated_at = ?
        WHERE id = ? AND reported = 0;
    `

	result, err := s.db.ExecContext(ctx, query, reason, time.Now().UTC(), messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking message reported", "message_id", messageID, "error", err)
		return fmt.Errorf("failed to mark message %s reported: %w", messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check report update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s not found or already reported: %w", messageID, ErrNotFound)
	}

	s.logger.DebugContext(ctx, "Message marked as reported", "message_id", messageID)
	return nil
}

func (s *sqlxStore) DeleteAllMessages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages;`); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting all messages", "error", err)
		return fmt.Errorf("failed to delete all messages: %w", err)
	}
	s.logger.InfoContext(ctx, "All messages deleted")
	return nil
}

func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?;`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting expired messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete messages before %s: %w", cutoff, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted messages: %w", err)
	}

	s.logger.InfoContext(ctx, "Expired messages deleted", "cutoff", cutoff, "count", affected)
	return affected, nil
}

func (s *sqlxStore) GetSetting(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("setting key cannot be empty")
	}

	var setting Setting
	err := s.db.GetContext(ctx, &setting, `SELECT key, value, updated_at FROM settings WHERE key = ?;`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return setting.Value, nil
}

func (s *sqlxStore) SaveSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("setting key cannot be empty")
	}

	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error saving setting", "key", key, "error", err)
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}

	s.logger.DebugContext(ctx, "Setting saved", "key", key)
	return nil
}
