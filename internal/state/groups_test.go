package state

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"hubclient/internal/apiclient"
	"hubclient/internal/model"
)

const testGroup = "3a4b5c6d-7e8f-4012-9345-6789abcdef01"

type fakeGroupAPI struct {
	listFn   func(ctx context.Context) ([]model.GroupChat, error)
	addFn    func(ctx context.Context, groupID, memberID string) (model.GroupChat, error)
	removeFn func(ctx context.Context, groupID, memberID string) (model.GroupChat, error)
	sendFn   func(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error)
}

func (f *fakeGroupAPI) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeGroupAPI) CreateGroup(ctx context.Context, req apiclient.CreateGroupRequest) (model.GroupChat, error) {
	return model.GroupChat{}, nil
}

func (f *fakeGroupAPI) AddGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	if f.addFn != nil {
		return f.addFn(ctx, groupID, memberID)
	}
	return model.GroupChat{}, nil
}

func (f *fakeGroupAPI) RemoveGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	if f.removeFn != nil {
		return f.removeFn(ctx, groupID, memberID)
	}
	return model.GroupChat{}, nil
}

func (f *fakeGroupAPI) ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeGroupAPI) SendMessage(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, req)
	}
	return model.Message{}, nil
}

func seedGroupStore(t *testing.T, api *fakeGroupAPI, members []string) *GroupStore {
	t.Helper()
	api.listFn = func(ctx context.Context) ([]model.GroupChat, error) {
		return []model.GroupChat{{GroupID: testGroup, Name: "study", Members: members}}, nil
	}
	s := NewGroupStore(api, newTestSession())
	if _, err := s.FetchGroups(context.Background()); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}
	return s
}

func TestAddMemberConfirms(t *testing.T) {
	api := &fakeGroupAPI{
		addFn: func(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
			return model.GroupChat{GroupID: testGroup, Members: []string{testSelf, memberID}}, nil
		},
	}
	s := seedGroupStore(t, api, []string{testSelf})

	g, err := s.AddMember(context.Background(), testGroup, testOther)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.Members, []string{testSelf, testOther}) {
		t.Fatalf("unexpected membership: %v", g.Members)
	}
}

func TestRemoveMemberRollsBackOnFailure(t *testing.T) {
	api := &fakeGroupAPI{
		removeFn: func(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
			return model.GroupChat{}, errors.New("boom")
		},
	}
	s := seedGroupStore(t, api, []string{testSelf, testOther})

	if _, err := s.RemoveMember(context.Background(), testGroup, testOther); err == nil {
		t.Fatal("expected error")
	}
	groups := s.Groups()
	if !reflect.DeepEqual(groups[0].Members, []string{testSelf, testOther}) {
		t.Fatalf("expected membership restored, got %v", groups[0].Members)
	}
}

func TestGroupSendRollsBackOnFailure(t *testing.T) {
	api := &fakeGroupAPI{
		sendFn: func(ctx context.Context, req apiclient.SendMessageRequest) (model.Message, error) {
			return model.Message{}, errors.New("boom")
		},
	}
	s := seedGroupStore(t, api, []string{testSelf})

	if _, err := s.Send(context.Background(), testGroup, "hello"); err == nil {
		t.Fatal("expected error")
	}
	if groups := s.Groups(); groups[0].LastMessage != nil {
		t.Fatalf("expected no residue, got %+v", groups[0].LastMessage)
	}
}
