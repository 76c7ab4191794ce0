package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hubclient/internal/apiclient"
	"hubclient/internal/metrics"
	"hubclient/internal/model"
	"hubclient/internal/reqcache"
	"hubclient/internal/session"
	"hubclient/internal/store/chatlog"
)

// ChatAPI is the slice of the API client the chat store depends on.
type ChatAPI interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, req apiclient.CreateConversationRequest) (model.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	SendMessage(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error)
	MarkMessageRead(ctx context.Context, messageID string) error
}

// ChatStore owns conversations and their message collections. Message
// fetches go through the request cache so repeated opens of the same
// thread within the TTL cost no network calls, and a re-fetch
// supersedes any still-pending one. Unread counts are derived by
// scanning the message collection; the server's counters are not
// trusted.
type ChatStore struct {
	mu            sync.Mutex
	api           ChatAPI
	sess          *session.Session
	cache         *reqcache.Group
	journal       *chatlog.DB
	conversations []model.Conversation
	messages      map[string][]model.Message
	lastErr       string
}

// NewChatStore builds a chat store. journal may be nil to disable the
// local history.
func NewChatStore(api ChatAPI, sess *session.Session, cache *reqcache.Group, journal *chatlog.DB) *ChatStore {
	return &ChatStore{
		api:      api,
		sess:     sess,
		cache:    cache,
		journal:  journal,
		messages: make(map[string][]model.Message),
	}
}

// Conversations returns a copy of the conversation list with derived
// last-message and unread views filled in.
func (s *ChatStore) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	self := s.sess.AnonymousID()
	for i := range out {
		msgs := s.messages[out[i].ConversationID]
		out[i].LastMessage = model.LastMessage(msgs)
		out[i].UnreadCount = model.UnreadCount(msgs, self)
	}
	return out
}

// LastError returns the most recent failure message.
func (s *ChatStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchConversations loads the caller's conversation list.
func (s *ChatStore) FetchConversations(ctx context.Context) ([]model.Conversation, error) {
	convs, err := s.api.ListConversations(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.conversations = convs
	s.lastErr = ""
	s.mu.Unlock()
	if s.journal != nil {
		for _, c := range convs {
			if err := s.journal.SaveConversation(ctx, c); err != nil {
				log.Debug().Err(err).Msg("journal conversation write failed")
			}
		}
	}
	return s.Conversations(), nil
}

// FetchMessages loads a conversation's messages through the request
// cache. A fresh cached page returns with no network call; issuing a
// new fetch for the same conversation cancels a still-pending one, and
// the superseded fetch settles quietly as (nil, nil).
func (s *ChatStore) FetchMessages(ctx context.Context, conversationID string, useCache bool) ([]model.Message, error) {
	key := "messages:" + conversationID
	msgs, err := reqcache.Do(ctx, s.cache, key, useCache, func(fctx context.Context) ([]model.Message, error) {
		return s.api.ListMessages(fctx, conversationID, 0, 0)
	})
	if err != nil {
		if errors.Is(err, reqcache.ErrSuperseded) {
			return nil, nil
		}
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.messages[conversationID] = msgs
	s.lastErr = ""
	s.mu.Unlock()
	if s.journal != nil {
		if err := s.journal.SaveMessages(ctx, conversationID, msgs); err != nil {
			log.Debug().Err(err).Msg("journal message batch failed")
		}
	}
	return msgs, nil
}

// SeedFromJournal fills a conversation's collection from the local
// journal, for offline rendering before the first fetch.
func (s *ChatStore) SeedFromJournal(ctx context.Context, conversationID string) error {
	if s.journal == nil {
		return nil
	}
	msgs, err := s.journal.LoadMessages(ctx, conversationID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.messages[conversationID]; !ok {
		s.messages[conversationID] = msgs
	}
	s.mu.Unlock()
	return nil
}

// CreateConversation opens a thread and prepends it locally.
func (s *ChatStore) CreateConversation(ctx context.Context, req apiclient.CreateConversationRequest) (model.Conversation, error) {
	conv, err := s.api.CreateConversation(ctx, req)
	if err != nil {
		s.fail(err)
		return model.Conversation{}, err
	}
	s.mu.Lock()
	s.conversations = append([]model.Conversation{conv}, s.conversations...)
	s.lastErr = ""
	s.mu.Unlock()
	return conv, nil
}

// SendMessage appends an optimistic message, replaced wholesale by the
// server record on success and removed on failure.
func (s *ChatStore) SendMessage(ctx context.Context, conversationID string, req apiclient.SendMessageRequest) (model.Message, error) {
	placeholder := model.Message{
		ID:         model.NewLocalID(),
		SenderID:   s.sess.AnonymousID(),
		ReceiverID: req.ReceiverID,
		GroupID:    req.GroupID,
		Content:    req.Content,
		IsRead:     true,
		Timestamp:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.messages[conversationID] = append(s.messages[conversationID], placeholder)
	s.mu.Unlock()

	confirmed, err := s.api.SendMessage(ctx, req)
	s.mu.Lock()
	msgs := s.messages[conversationID]
	idx := -1
	for i := range msgs {
		if msgs[i].ID.Value == placeholder.ID.Value {
			idx = i
			break
		}
	}
	if err != nil {
		if idx >= 0 {
			s.messages[conversationID] = append(msgs[:idx], msgs[idx+1:]...)
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Message{}, err
	}
	if idx >= 0 {
		msgs[idx] = confirmed
	} else {
		s.messages[conversationID] = append(msgs, confirmed)
	}
	s.cache.Invalidate("messages:" + conversationID)
	s.lastErr = ""
	s.mu.Unlock()
	if s.journal != nil {
		if jerr := s.journal.SaveMessage(ctx, conversationID, confirmed); jerr != nil {
			log.Debug().Err(jerr).Msg("journal message write failed")
		}
	}
	return confirmed, nil
}

// MarkRead flips the read flag optimistically and reverts on failure.
func (s *ChatStore) MarkRead(ctx context.Context, conversationID, messageID string) error {
	s.mu.Lock()
	msgs := s.messages[conversationID]
	idx := -1
	for i := range msgs {
		if msgs[i].MessageID == messageID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		msgs[idx].IsRead = true
	}
	s.mu.Unlock()

	if err := s.api.MarkMessageRead(ctx, messageID); err != nil {
		s.mu.Lock()
		if idx >= 0 && idx < len(s.messages[conversationID]) {
			s.messages[conversationID][idx].IsRead = false
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return err
	}
	if s.journal != nil {
		if err := s.journal.MarkRead(ctx, messageID); err != nil {
			log.Debug().Err(err).Msg("journal read flag failed")
		}
	}
	return nil
}

// UnreadCount derives the unread total for one conversation.
func (s *ChatStore) UnreadCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.UnreadCount(s.messages[conversationID], s.sess.AnonymousID())
}

// ApplyIncoming folds a message pushed over the realtime feed into the
// collection. Duplicates (already fetched or optimistic-confirmed) are
// dropped.
func (s *ChatStore) ApplyIncoming(conversationID string, m model.Message) {
	s.mu.Lock()
	for i := range s.messages[conversationID] {
		if s.messages[conversationID][i].MessageID == m.MessageID {
			s.mu.Unlock()
			return
		}
	}
	m.ID = model.ConfirmedID(m.MessageID)
	s.messages[conversationID] = append(s.messages[conversationID], m)
	s.mu.Unlock()
	if s.journal != nil {
		if err := s.journal.SaveMessage(context.Background(), conversationID, m); err != nil {
			log.Debug().Err(err).Msg("journal incoming message failed")
		}
	}
}

func (s *ChatStore) fail(err error) {
	if apiclient.IsCanceled(err) {
		return
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	if s.sess.HandleAuthError(err) {
		return
	}
	log.Debug().Err(err).Msg("chat operation failed")
}
