// Package convstore archives conversation messages to SQLite so a
// conversation survives process restarts.
package convstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"conductor-ai/internal/domain"
)

// Store persists messages keyed by message id.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive database at dbPath and runs the
// schema migration.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open conversation archive: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate conversation archive: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			message_id      TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender_id       TEXT NOT NULL,
			receiver_id     TEXT NOT NULL,
			message_type    TEXT NOT NULL,
			payload         TEXT NOT NULL,
			created_at      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages (conversation_id, created_at)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMessage archives one message. Re-saving the same message id is
// a no-op.
func (s *Store) SaveMessage(msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	payload, err := json.Marshal(msg.Wire())
	if err != nil {
		return fmt.Errorf("marshal message %s: %w", msg.MessageID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO messages
			(message_id, conversation_id, sender_id, receiver_id, message_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.ConversationID, msg.SenderID, msg.ReceiverID,
		string(msg.Type), string(payload), msg.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert message %s: %w", msg.MessageID, err)
	}
	return nil
}

// Conversation reloads a conversation's messages in arrival order.
func (s *Store) Conversation(conversationID string) ([]*domain.Message, error) {
	rows, err := s.db.Query(
		"SELECT payload FROM messages WHERE conversation_id = ? ORDER BY created_at, message_id",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var wire map[string]any
		if err := json.Unmarshal([]byte(payload), &wire); err != nil {
			return nil, fmt.Errorf("decode archived message: %w", err)
		}
		msg, err := domain.FromWire(wire)
		if err != nil {
			return nil, fmt.Errorf("restore archived message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Callback adapts the store into a message_sent event callback, so the
// manager archives every routed message as a side effect.
func (s *Store) Callback() domain.EventCallback {
	return func(ev domain.Event) {
		if ev.Type != domain.EventMessageSent {
			return
		}
		wire, ok := ev.Data["message"].(map[string]any)
		if !ok {
			return
		}
		msg, err := domain.FromWire(wire)
		if err != nil {
			s.logger.Warn("archive skipped malformed message", "error", err)
			return
		}
		if err := s.SaveMessage(msg); err != nil {
			s.logger.Error("archive write failed", "message_id", msg.MessageID, "error", err)
		}
	}
}
