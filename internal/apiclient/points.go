package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"hubclient/internal/model"
)

// TransferPointsRequest moves points to another member.
type TransferPointsRequest struct {
	To     string `json:"to" validate:"required,uuid4"`
	Amount int    `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

// GetPoints fetches the caller's balance.
func (c *Client) GetPoints(ctx context.Context) (model.Points, error) {
	var out model.Points
	err := c.do(ctx, http.MethodGet, "/api/v1/points", nil, nil, &out)
	return out, err
}

// PointsHistory fetches the recent ledger entries.
func (c *Client) PointsHistory(ctx context.Context, limit int) ([]model.PointsEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.PointsEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/points/history", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransferPoints moves points to another member.
func (c *Client) TransferPoints(ctx context.Context, req TransferPointsRequest) (model.Points, error) {
	var out model.Points
	if err := checkPayload(req); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/points/transfer", nil, req, &out)
	return out, err
}
