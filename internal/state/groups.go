package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"hubclient/internal/apiclient"
	"hubclient/internal/metrics"
	"hubclient/internal/model"
	"hubclient/internal/session"
)

// GroupAPI is the slice of the API client the group store depends on.
type GroupAPI interface {
	ListGroups(ctx context.Context) ([]model.GroupChat, error)
	CreateGroup(ctx context.Context, req apiclient.CreateGroupRequest) (model.GroupChat, error)
	AddGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error)
	RemoveGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error)
	ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]model.Message, error)
	SendMessage(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error)
}

// GroupStore owns the group-chat collection with optimistic membership
// edits.
type GroupStore struct {
	mu       sync.Mutex
	api      GroupAPI
	sess     *session.Session
	groups   []model.GroupChat
	messages map[string][]model.Message
	lastErr  string
}

func NewGroupStore(api GroupAPI, sess *session.Session) *GroupStore {
	return &GroupStore{api: api, sess: sess, messages: make(map[string][]model.Message)}
}

// Groups returns a copy of the group list with derived unread views.
func (s *GroupStore) Groups() []model.GroupChat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.GroupChat, len(s.groups))
	copy(out, s.groups)
	self := s.sess.AnonymousID()
	for i := range out {
		msgs := s.messages[out[i].GroupID]
		out[i].LastMessage = model.LastMessage(msgs)
		out[i].UnreadCount = model.UnreadCount(msgs, self)
	}
	return out
}

// LastError returns the most recent failure message.
func (s *GroupStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchGroups loads the caller's group chats.
func (s *GroupStore) FetchGroups(ctx context.Context) ([]model.GroupChat, error) {
	groups, err := s.api.ListGroups(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.groups = groups
	s.lastErr = ""
	s.mu.Unlock()
	return s.Groups(), nil
}

// CreateGroup opens a group and prepends it locally.
func (s *GroupStore) CreateGroup(ctx context.Context, req apiclient.CreateGroupRequest) (model.GroupChat, error) {
	g, err := s.api.CreateGroup(ctx, req)
	if err != nil {
		s.fail(err)
		return model.GroupChat{}, err
	}
	s.mu.Lock()
	s.groups = append([]model.GroupChat{g}, s.groups...)
	s.lastErr = ""
	s.mu.Unlock()
	return g, nil
}

// AddMember applies the membership change optimistically and reverts
// on failure.
func (s *GroupStore) AddMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	return s.mutateMembers(ctx, groupID,
		func(g *model.GroupChat) { g.Members = append(g.Members, memberID) },
		func(ctx context.Context) (model.GroupChat, error) { return s.api.AddGroupMember(ctx, groupID, memberID) })
}

// RemoveMember applies the membership change optimistically and reverts
// on failure.
func (s *GroupStore) RemoveMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	return s.mutateMembers(ctx, groupID,
		func(g *model.GroupChat) { g.Members = lo.Without(g.Members, memberID) },
		func(ctx context.Context) (model.GroupChat, error) { return s.api.RemoveGroupMember(ctx, groupID, memberID) })
}

func (s *GroupStore) mutateMembers(ctx context.Context, groupID string, apply func(*model.GroupChat), call func(context.Context) (model.GroupChat, error)) (model.GroupChat, error) {
	s.mu.Lock()
	idx := -1
	var prev model.GroupChat
	for i := range s.groups {
		if s.groups[i].GroupID == groupID {
			idx = i
			prev = s.groups[i]
			apply(&s.groups[i])
			break
		}
	}
	s.mu.Unlock()

	confirmed, err := call(ctx)
	s.mu.Lock()
	if err != nil {
		if idx >= 0 && idx < len(s.groups) {
			s.groups[idx] = prev
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.GroupChat{}, err
	}
	if idx >= 0 && idx < len(s.groups) {
		s.groups[idx] = confirmed
	}
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// FetchMessages loads a group's messages.
func (s *GroupStore) FetchMessages(ctx context.Context, groupID string) ([]model.Message, error) {
	msgs, err := s.api.ListGroupMessages(ctx, groupID, 0, 0)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.messages[groupID] = msgs
	s.lastErr = ""
	s.mu.Unlock()
	return msgs, nil
}

// Send posts a group message optimistically.
func (s *GroupStore) Send(ctx context.Context, groupID, content string) (model.Message, error) {
	placeholder := model.Message{
		ID:       model.NewLocalID(),
		SenderID: s.sess.AnonymousID(),
		GroupID:  groupID,
		Content:  content,
		IsRead:   true,
	}
	s.mu.Lock()
	s.messages[groupID] = append(s.messages[groupID], placeholder)
	s.mu.Unlock()

	confirmed, err := s.api.SendMessage(ctx, apiclient.SendMessageRequest{GroupID: groupID, Content: content})
	s.mu.Lock()
	msgs := s.messages[groupID]
	idx := -1
	for i := range msgs {
		if msgs[i].ID.Value == placeholder.ID.Value {
			idx = i
			break
		}
	}
	if err != nil {
		if idx >= 0 {
			s.messages[groupID] = append(msgs[:idx], msgs[idx+1:]...)
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Message{}, err
	}
	if idx >= 0 {
		msgs[idx] = confirmed
	} else {
		s.messages[groupID] = append(msgs, confirmed)
	}
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

func (s *GroupStore) fail(err error) {
	if apiclient.IsCanceled(err) {
		return
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	if s.sess.HandleAuthError(err) {
		return
	}
	log.Debug().Err(err).Msg("group operation failed")
}
