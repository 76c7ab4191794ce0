package apiclient

import (
	"context"
	"net/http"

	"hubclient/internal/model"
)

// CreateGroupRequest starts a group chat.
type CreateGroupRequest struct {
	Name    string   `json:"name" validate:"required,min=1,max=100"`
	Members []string `json:"members" validate:"required,min=1,max=200,dive,uuid4"`
}

// ListGroups fetches the caller's group chats.
func (c *Client) ListGroups(ctx context.Context) ([]model.GroupChat, error) {
	var out []model.GroupChat
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGroup opens a new group chat.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (model.GroupChat, error) {
	var out model.GroupChat
	if err := checkPayload(req); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/groups", nil, req, &out)
	return out, err
}

// AddGroupMember adds one member to a group.
func (c *Client) AddGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	var out model.GroupChat
	if err := requireID("group_id", groupID); err != nil {
		return out, err
	}
	if err := requireID("member_id", memberID); err != nil {
		return out, err
	}
	body := map[string]string{"member_id": memberID}
	err := c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID+"/members", nil, body, &out)
	return out, err
}

// RemoveGroupMember removes one member from a group.
func (c *Client) RemoveGroupMember(ctx context.Context, groupID, memberID string) (model.GroupChat, error) {
	var out model.GroupChat
	if err := requireID("group_id", groupID); err != nil {
		return out, err
	}
	if err := requireID("member_id", memberID); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodDelete, "/api/v1/groups/"+groupID+"/members/"+memberID, nil, nil, &out)
	return out, err
}
