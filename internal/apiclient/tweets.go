package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hubclient/internal/model"
)

// CreateTweetRequest is the payload for posting a new tweet on a board.
type CreateTweetRequest struct {
	BoardID       string         `json:"board_id" validate:"required,uuid4"`
	Content       model.Content  `json:"content"`
	Position      model.Position `json:"position"`
	ParentTweetID *string        `json:"parent_tweet_id,omitempty" validate:"omitempty,uuid4"`
	IsAnonymous   bool           `json:"is_anonymous"`
	ScheduledAt   *time.Time     `json:"scheduled_at,omitempty"`
	ReminderAt    *time.Time     `json:"reminder_at,omitempty"`
}

// UpdateTweetRequest carries the editable fields of a tweet.
type UpdateTweetRequest struct {
	Content     *model.Content  `json:"content,omitempty"`
	Position    *model.Position `json:"position,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	ReminderAt  *time.Time      `json:"reminder_at,omitempty"`
}

// normalizeTweet stamps the confirmed id and guarantees non-nil slices
// so consumers never branch on absence.
func normalizeTweet(t *model.Tweet) {
	t.ID = model.ConfirmedID(t.TweetID)
	if t.LikedBy == nil {
		t.LikedBy = []string{}
	}
	if t.ChildTweetIDs == nil {
		t.ChildTweetIDs = []string{}
	}
}

// ListTweets fetches the tweets pinned on a board.
func (c *Client) ListTweets(ctx context.Context, boardID string, limit, offset int) ([]model.Tweet, error) {
	if err := requireID("board_id", boardID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []model.Tweet
	if err := c.do(ctx, http.MethodGet, "/api/v1/boards/"+boardID+"/tweets", q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normalizeTweet(&out[i])
	}
	return out, nil
}

// GetTweet fetches a single tweet.
func (c *Client) GetTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tweets/"+tweetID, nil, nil, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// ListComments fetches the child tweets of a tweet.
func (c *Client) ListComments(ctx context.Context, tweetID string) ([]model.Tweet, error) {
	if err := requireID("tweet_id", tweetID); err != nil {
		return nil, err
	}
	var out []model.Tweet
	if err := c.do(ctx, http.MethodGet, "/api/v1/tweets/"+tweetID+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		normalizeTweet(&out[i])
	}
	return out, nil
}

// CreateTweet posts a new tweet. The payload is validated before any
// network call.
func (c *Client) CreateTweet(ctx context.Context, req CreateTweetRequest) (model.Tweet, error) {
	var out model.Tweet
	if err := checkPayload(req); err != nil {
		return out, err
	}
	if err := checkContent(req.Content); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tweets", nil, req, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// UpdateTweet edits an existing tweet.
func (c *Client) UpdateTweet(ctx context.Context, tweetID string, req UpdateTweetRequest) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if req.Content != nil {
		if err := checkContent(*req.Content); err != nil {
			return out, err
		}
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/tweets/"+tweetID, nil, req, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// DeleteTweet removes a tweet.
func (c *Client) DeleteTweet(ctx context.Context, tweetID string) error {
	if err := requireID("tweet_id", tweetID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/api/v1/tweets/"+tweetID, nil, nil, nil)
}

// LikeTweet adds the caller to the like set and returns the server's
// authoritative record.
func (c *Client) LikeTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.likeOp(ctx, tweetID, http.MethodPost)
}

// UnlikeTweet removes the caller from the like set.
func (c *Client) UnlikeTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.likeOp(ctx, tweetID, http.MethodDelete)
}

func (c *Client) likeOp(ctx context.Context, tweetID, method string) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if err := c.do(ctx, method, "/api/v1/tweets/"+tweetID+"/like", nil, nil, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// PinTweet pins a tweet on its board.
func (c *Client) PinTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.actionOp(ctx, tweetID, "pin")
}

// UnpinTweet clears the pin flag.
func (c *Client) UnpinTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.actionOp(ctx, tweetID, "unpin")
}

// ArchiveTweet moves a tweet to archived status.
func (c *Client) ArchiveTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.actionOp(ctx, tweetID, "archive")
}

func (c *Client) actionOp(ctx context.Context, tweetID, action string) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tweets/"+tweetID+"/"+action, nil, nil, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// SetTweetStatus assigns a lifecycle status.
func (c *Client) SetTweetStatus(ctx context.Context, tweetID string, status model.TweetStatus) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if err := checkStatus(status); err != nil {
		return out, err
	}
	body := map[string]any{"status": status}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tweets/"+tweetID+"/status", nil, body, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// MoveTweet updates a tweet's spatial position on its board.
func (c *Client) MoveTweet(ctx context.Context, tweetID string, pos model.Position) (model.Tweet, error) {
	var out model.Tweet
	if err := requireID("tweet_id", tweetID); err != nil {
		return out, err
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/tweets/"+tweetID+"/position", nil, pos, &out); err != nil {
		return out, err
	}
	normalizeTweet(&out)
	return out, nil
}

// ShareTweet appends to the tweet's share log.
func (c *Client) ShareTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	return c.actionOp(ctx, tweetID, "share")
}
