package apiclient

import (
	"context"
	"net/http"

	"hubclient/internal/model"
)

// CreateConversationRequest starts a direct-message thread.
type CreateConversationRequest struct {
	Members []string `json:"members" validate:"required,min=1,max=50,dive,uuid4"`
	Name    string   `json:"name,omitempty" validate:"max=100"`
}

// ListConversations fetches the caller's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation opens a new thread. The payload is validated
// before any network call.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (model.Conversation, error) {
	var out model.Conversation
	if err := checkPayload(req); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations", nil, req, &out)
	return out, err
}

// GetConversation fetches one conversation.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (model.Conversation, error) {
	var out model.Conversation
	if err := requireID("conversation_id", conversationID); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+conversationID, nil, nil, &out)
	return out, err
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := requireID("conversation_id", conversationID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/api/v1/conversations/"+conversationID, nil, nil, nil)
}
