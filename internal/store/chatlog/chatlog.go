// Package chatlog keeps a local SQLite journal of chat messages so
// history survives restarts and unread counts can be seeded offline.
package chatlog

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"hubclient/internal/model"
)

// DB wraps the SQLite database backing the journal.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS messages (
	  message_id TEXT PRIMARY KEY,
	  conversation_id TEXT NOT NULL,
	  sender_id TEXT NOT NULL,
	  receiver_id TEXT,
	  group_id TEXT,
	  content TEXT NOT NULL,
	  is_read INTEGER NOT NULL DEFAULT 0,
	  ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conversation_id, ts);
	CREATE TABLE IF NOT EXISTS conversations (
	  conversation_id TEXT PRIMARY KEY,
	  name TEXT,
	  members TEXT
	);
	`)
	return err
}

// SaveMessage upserts one message under its conversation key.
func (d *DB) SaveMessage(ctx context.Context, conversationID string, m model.Message) error {
	_, err := d.sql.ExecContext(ctx, `
	INSERT INTO messages(message_id, conversation_id, sender_id, receiver_id, group_id, content, is_read, ts)
	VALUES(?,?,?,?,?,?,?,?)
	ON CONFLICT(message_id) DO UPDATE SET content=excluded.content, is_read=excluded.is_read`,
		m.MessageID, conversationID, m.SenderID, m.ReceiverID, m.GroupID, m.Content, boolToInt(m.IsRead), m.Timestamp.Unix())
	return err
}

// SaveMessages journals a batch.
func (d *DB) SaveMessages(ctx context.Context, conversationID string, msgs []model.Message) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages(message_id, conversation_id, sender_id, receiver_id, group_id, content, is_read, ts)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(message_id) DO UPDATE SET content=excluded.content, is_read=excluded.is_read`,
			m.MessageID, conversationID, m.SenderID, m.ReceiverID, m.GroupID, m.Content, boolToInt(m.IsRead), m.Timestamp.Unix()); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadMessages returns the journaled messages for a conversation in
// timestamp order.
func (d *DB) LoadMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := d.sql.QueryContext(ctx, `
	SELECT message_id, sender_id, COALESCE(receiver_id,''), COALESCE(group_id,''), content, is_read, ts
	FROM messages WHERE conversation_id=? ORDER BY ts`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Message
	for rows.Next() {
		var m model.Message
		var read int
		var ts int64
		if err := rows.Scan(&m.MessageID, &m.SenderID, &m.ReceiverID, &m.GroupID, &m.Content, &read, &ts); err != nil {
			return nil, err
		}
		m.IsRead = read != 0
		m.Timestamp = time.Unix(ts, 0).UTC()
		m.ID = model.ConfirmedID(m.MessageID)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag in the journal.
func (d *DB) MarkRead(ctx context.Context, messageID string) error {
	_, err := d.sql.ExecContext(ctx, `UPDATE messages SET is_read=1 WHERE message_id=?`, messageID)
	return err
}

// SaveConversation upserts conversation metadata.
func (d *DB) SaveConversation(ctx context.Context, c model.Conversation) error {
	members := ""
	for i, m := range c.Members {
		if i > 0 {
			members += ","
		}
		members += m
	}
	_, err := d.sql.ExecContext(ctx, `
	INSERT INTO conversations(conversation_id, name, members) VALUES(?,?,?)
	ON CONFLICT(conversation_id) DO UPDATE SET name=excluded.name, members=excluded.members`,
		c.ConversationID, c.Name, members)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
