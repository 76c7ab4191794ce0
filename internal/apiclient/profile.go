package apiclient

import (
	"context"
	"net/http"

	"hubclient/internal/model"
)

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	FullName      *string                  `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Bio           *string                  `json:"bio,omitempty" validate:"omitempty,max=500"`
	Locale        *string                  `json:"locale,omitempty" validate:"omitempty,bcp47_language_tag"`
	IsPublic      *bool                    `json:"is_public,omitempty"`
	ShowActivity  *bool                    `json:"show_activity,omitempty"`
	Notifications *model.NotificationPrefs `json:"notifications,omitempty"`
}

// GetProfile fetches the caller's profile, normalized so every field
// has its documented fallback.
func (c *Client) GetProfile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, nil, &out); err != nil {
		return out, err
	}
	out.Normalize()
	return out, nil
}

// UpdateProfile edits the caller's profile.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (model.Profile, error) {
	var out model.Profile
	if err := checkPayload(req); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/profile", nil, req, &out); err != nil {
		return out, err
	}
	out.Normalize()
	return out, nil
}
