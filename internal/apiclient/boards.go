package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"hubclient/internal/model"
)

// ListBoards fetches boards visible to the caller, optionally scoped to
// a class or gate.
func (c *Client) ListBoards(ctx context.Context, classID, gateID string, limit, offset int) ([]model.Board, error) {
	q := url.Values{}
	if classID != "" {
		if err := requireID("class_id", classID); err != nil {
			return nil, err
		}
		q.Set("class_id", classID)
	}
	if gateID != "" {
		if err := requireID("gate_id", gateID); err != nil {
			return nil, err
		}
		q.Set("gate_id", gateID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []model.Board
	if err := c.do(ctx, http.MethodGet, "/api/v1/boards", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBoard fetches one board.
func (c *Client) GetBoard(ctx context.Context, boardID string) (model.Board, error) {
	var out model.Board
	if err := requireID("board_id", boardID); err != nil {
		return out, err
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/boards/"+boardID, nil, nil, &out)
	return out, err
}
