package model

import "time"

// Message is one chat message. Exactly one of ReceiverID and GroupID is
// set: direct messages address a user, group messages address a group.
type Message struct {
	ID EntityID `json:"-"`

	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	Timestamp  time.Time `json:"timestamp"`
}

// Conversation is a direct-message thread between two members.
type Conversation struct {
	ConversationID string   `json:"conversation_id"`
	Members        []string `json:"members"`
	Name           string   `json:"name,omitempty"`

	// LastMessage and UnreadCount are derived client-side from the full
	// message collection; the server's counters are not trusted.
	LastMessage *Message `json:"-"`
	UnreadCount int      `json:"-"`
}

// GroupChat is a named multi-member chat.
type GroupChat struct {
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	LastMessage *Message `json:"-"`
	UnreadCount int      `json:"-"`
}

// UnreadCount scans messages and counts those addressed to selfID that
// are still unread.
func UnreadCount(messages []Message, selfID string) int {
	n := 0
	for i := range messages {
		m := &messages[i]
		if !m.IsRead && m.SenderID != selfID {
			n++
		}
	}
	return n
}

// LastMessage returns the newest message by timestamp, or nil.
func LastMessage(messages []Message) *Message {
	var last *Message
	for i := range messages {
		if last == nil || messages[i].Timestamp.After(last.Timestamp) {
			last = &messages[i]
		}
	}
	return last
}
