package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hubclient/internal/model"
)

// SendMessageRequest addresses either a user (direct) or a group, never
// both.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id,omitempty" validate:"omitempty,uuid4"`
	GroupID    string `json:"group_id,omitempty" validate:"omitempty,uuid4"`
	Content    string `json:"content" validate:"required,max=4000"`
}

func normalizeMessage(m *model.Message) {
	m.ID = model.ConfirmedID(m.MessageID)
}

// ListMessages fetches messages for a conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	if err := requireID("conversation_id", conversationID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []model.Message
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+conversationID+"/messages", q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normalizeMessage(&out[i])
	}
	return out, nil
}

// ListGroupMessages fetches messages for a group chat.
func (c *Client) ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]model.Message, error) {
	if err := requireID("group_id", groupID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []model.Message
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/messages", q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normalizeMessage(&out[i])
	}
	return out, nil
}

// SendMessage delivers one message. Addressing is mutually exclusive:
// exactly one of ReceiverID and GroupID must be set.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (model.Message, error) {
	var out model.Message
	if err := checkPayload(req); err != nil {
		return out, err
	}
	if (req.ReceiverID == "") == (req.GroupID == "") {
		return out, fmt.Errorf("%w: exactly one of receiver_id and group_id must be set", ErrValidation)
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/messages", nil, req, &out); err != nil {
		return out, err
	}
	normalizeMessage(&out)
	return out, nil
}

// MarkMessageRead flips a message's read flag.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) error {
	if err := requireID("message_id", messageID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/v1/messages/"+messageID+"/read", nil, nil, nil)
}
