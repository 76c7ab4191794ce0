package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"hubclient/internal/apiclient"
	"hubclient/internal/model"
	"hubclient/internal/reqcache"
)

const (
	testConv  = "7a1b2c3d-4e5f-4a6b-8c9d-0e1f2a3b4c5d"
	testOther = "2f3e4d5c-6b7a-4890-9abc-def012345678"
)

type fakeChatAPI struct {
	listConvsFn func(ctx context.Context) ([]model.Conversation, error)
	listMsgsFn  func(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	sendFn      func(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error)
	markReadFn  func(ctx context.Context, messageID string) error
}

func (f *fakeChatAPI) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	if f.listConvsFn != nil {
		return f.listConvsFn(ctx)
	}
	return nil, nil
}

func (f *fakeChatAPI) CreateConversation(ctx context.Context, req apiclient.CreateConversationRequest) (model.Conversation, error) {
	return model.Conversation{}, nil
}

func (f *fakeChatAPI) DeleteConversation(ctx context.Context, conversationID string) error {
	return nil
}

func (f *fakeChatAPI) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	if f.listMsgsFn != nil {
		return f.listMsgsFn(ctx, conversationID, limit, offset)
	}
	return nil, nil
}

func (f *fakeChatAPI) SendMessage(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, req)
	}
	return model.Message{}, nil
}

func (f *fakeChatAPI) MarkMessageRead(ctx context.Context, messageID string) error {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, messageID)
	}
	return nil
}

func newChatStore(api ChatAPI) *ChatStore {
	return NewChatStore(api, newTestSession(), reqcache.New(time.Minute), nil)
}

func testMessages() []model.Message {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.Message{
		{MessageID: "m1", SenderID: testSelf, Content: "hi", IsRead: true, Timestamp: base},
		{MessageID: "m2", SenderID: testOther, Content: "hello", IsRead: false, Timestamp: base.Add(time.Minute)},
		{MessageID: "m3", SenderID: testOther, Content: "there?", IsRead: false, Timestamp: base.Add(2 * time.Minute)},
	}
}

func TestUnreadAndLastMessageDerived(t *testing.T) {
	api := &fakeChatAPI{
		listConvsFn: func(ctx context.Context) ([]model.Conversation, error) {
			return []model.Conversation{{ConversationID: testConv, Members: []string{testSelf, testOther}}}, nil
		},
		listMsgsFn: func(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
			return testMessages(), nil
		},
	}
	s := newChatStore(api)
	ctx := context.Background()
	if _, err := s.FetchConversations(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetchMessages(ctx, testConv, true); err != nil {
		t.Fatal(err)
	}

	convs := s.Conversations()
	if len(convs) != 1 {
		t.Fatalf("expected one conversation, got %d", len(convs))
	}
	if convs[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread from the other member, got %d", convs[0].UnreadCount)
	}
	if convs[0].LastMessage == nil || convs[0].LastMessage.MessageID != "m3" {
		t.Fatalf("expected newest message derived, got %+v", convs[0].LastMessage)
	}
}

func TestFetchMessagesServedFromCache(t *testing.T) {
	calls := 0
	api := &fakeChatAPI{
		listMsgsFn: func(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
			calls++
			return testMessages(), nil
		},
	}
	s := newChatStore(api)
	ctx := context.Background()
	if _, err := s.FetchMessages(ctx, testConv, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetchMessages(ctx, testConv, true); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the second fetch served from cache, got %d calls", calls)
	}
}

func TestSupersededFetchSettlesQuietly(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeChatAPI{
		listMsgsFn: func(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
			select {
			case <-started:
			default:
				close(started)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-release:
				}
			}
			return testMessages(), nil
		},
	}
	s := newChatStore(api)

	type out struct {
		msgs []model.Message
		err  error
	}
	first := make(chan out, 1)
	go func() {
		msgs, err := s.FetchMessages(context.Background(), testConv, true)
		first <- out{msgs, err}
	}()
	<-started

	if _, err := s.FetchMessages(context.Background(), testConv, true); err != nil {
		t.Fatalf("superseding fetch failed: %v", err)
	}
	close(release)

	select {
	case o := <-first:
		if o.err != nil || o.msgs != nil {
			t.Fatalf("superseded fetch must settle as (nil, nil), got %v %v", o.msgs, o.err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded fetch never settled")
	}
}

func TestSendMessageRollsBackOnFailure(t *testing.T) {
	api := &fakeChatAPI{
		sendFn: func(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error) {
			return model.Message{}, errors.New("boom")
		},
	}
	s := newChatStore(api)
	_, err := s.SendMessage(context.Background(), testConv, apiclient.SendMessageRequest{
		ReceiverID: testOther,
		Content:    "hi",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := s.UnreadCount(testConv); n != 0 {
		t.Fatalf("expected no residue after rollback, unread=%d", n)
	}
	s.mu.Lock()
	left := len(s.messages[testConv])
	s.mu.Unlock()
	if left != 0 {
		t.Fatalf("expected optimistic message removed, %d left", left)
	}
}

func TestApplyIncomingDedupes(t *testing.T) {
	s := newChatStore(&fakeChatAPI{})
	m := model.Message{MessageID: "m9", SenderID: testOther, Content: "ping", Timestamp: time.Now()}
	s.ApplyIncoming(testConv, m)
	s.ApplyIncoming(testConv, m)
	if n := s.UnreadCount(testConv); n != 1 {
		t.Fatalf("expected duplicate pushes dropped, unread=%d", n)
	}
}
