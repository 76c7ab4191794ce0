package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"hubclient/internal/apiclient"
	"hubclient/internal/debounce"
	"hubclient/internal/metrics"
	"hubclient/internal/model"
	"hubclient/internal/session"
)

// TweetAPI is the slice of the API client the tweet store depends on.
type TweetAPI interface {
	ListTweets(ctx context.Context, boardID string, limit, offset int) ([]model.Tweet, error)
	GetTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	ListComments(ctx context.Context, tweetID string) ([]model.Tweet, error)
	CreateTweet(ctx context.Context, req apiclient.CreateTweetRequest) (model.Tweet, error)
	UpdateTweet(ctx context.Context, tweetID string, req apiclient.UpdateTweetRequest) (model.Tweet, error)
	DeleteTweet(ctx context.Context, tweetID string) error
	LikeTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	UnlikeTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	PinTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	UnpinTweet(ctx context.Context, tweetID string) (model.Tweet, error)
	SetTweetStatus(ctx context.Context, tweetID string, status model.TweetStatus) (model.Tweet, error)
	MoveTweet(ctx context.Context, tweetID string, pos model.Position) (model.Tweet, error)
}

// TweetStore owns the in-memory tweet collection for one board and
// performs optimistic mutation: the local collection changes before the
// network confirms, reconciles with the server's record on success, and
// rolls back on failure. A 401/403 from any operation invalidates the
// session.
type TweetStore struct {
	mu        sync.Mutex
	api       TweetAPI
	sess      *session.Session
	boardID   string
	tweets    []model.Tweet
	lastValid []model.Tweet
	lastErr   string

	listDeb     *debounce.Debouncer[[]model.Tweet]
	commentsDeb map[string]*debounce.Debouncer[[]model.Tweet]
	singleDeb   map[string]*debounce.Debouncer[model.Tweet]

	// likeMu serializes like toggles per tweet id so a rapid second
	// toggle waits for the first's settlement before computing its
	// optimistic delta.
	likeMu map[string]*sync.Mutex

	debounceWindow time.Duration
}

func NewTweetStore(api TweetAPI, sess *session.Session, boardID string, window time.Duration) *TweetStore {
	s := &TweetStore{
		api:            api,
		sess:           sess,
		boardID:        boardID,
		commentsDeb:    make(map[string]*debounce.Debouncer[[]model.Tweet]),
		singleDeb:      make(map[string]*debounce.Debouncer[model.Tweet]),
		likeMu:         make(map[string]*sync.Mutex),
		debounceWindow: window,
	}
	s.listDeb = debounce.New(window, func(ctx context.Context) ([]model.Tweet, error) {
		return s.api.ListTweets(ctx, s.boardID, 0, 0)
	})
	return s
}

// Tweets returns a copy of the current collection.
func (s *TweetStore) Tweets() []model.Tweet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Tweet, len(s.tweets))
	copy(out, s.tweets)
	return out
}

// LastError returns the human-readable message of the most recent
// failure, for display near the triggering UI.
func (s *TweetStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchTweets loads the board's tweets. Bursts of calls within the
// debounce window collapse into one request.
func (s *TweetStore) FetchTweets(ctx context.Context) ([]model.Tweet, error) {
	tweets, err := s.listDeb.Call(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.tweets = tweets
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return tweets, nil
}

// FetchTweet loads one tweet, debounced per id.
func (s *TweetStore) FetchTweet(ctx context.Context, tweetID string) (model.Tweet, error) {
	s.mu.Lock()
	d, ok := s.singleDeb[tweetID]
	if !ok {
		d = debounce.New(s.debounceWindow, func(ctx context.Context) (model.Tweet, error) {
			return s.api.GetTweet(ctx, tweetID)
		})
		s.singleDeb[tweetID] = d
	}
	s.mu.Unlock()

	t, err := d.Call(ctx)
	if err != nil {
		s.fail(err)
		return model.Tweet{}, err
	}
	s.mu.Lock()
	if i := s.indexOfLocked(t.ID.Value); i >= 0 {
		s.tweets[i] = t
	}
	s.mu.Unlock()
	return t, nil
}

// FetchComments loads a tweet's children, debounced per parent id.
func (s *TweetStore) FetchComments(ctx context.Context, tweetID string) ([]model.Tweet, error) {
	s.mu.Lock()
	d, ok := s.commentsDeb[tweetID]
	if !ok {
		d = debounce.New(s.debounceWindow, func(ctx context.Context) ([]model.Tweet, error) {
			return s.api.ListComments(ctx, tweetID)
		})
		s.commentsDeb[tweetID] = d
	}
	s.mu.Unlock()

	out, err := d.Call(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return out, nil
}

// CreateTweet inserts an optimistic placeholder, then reconciles. On
// success the placeholder is replaced wholesale by the server's record;
// on failure it is removed with no residue and the error is rethrown so
// the caller can surface its own message.
func (s *TweetStore) CreateTweet(ctx context.Context, req apiclient.CreateTweetRequest) (model.Tweet, error) {
	placeholder := model.Tweet{
		ID:            model.NewLocalID(),
		BoardID:       req.BoardID,
		Content:       req.Content,
		Position:      req.Position,
		ParentTweetID: req.ParentTweetID,
		AnonymousID:   s.sess.AnonymousID(),
		Username:      s.sess.Username(),
		IsAnonymous:   req.IsAnonymous,
		LikedBy:       []string{},
		Status:        model.StatusPending,
		ScheduledAt:   req.ScheduledAt,
		ReminderAt:    req.ReminderAt,
		CreatedAt:     time.Now().UTC(),
	}
	s.mu.Lock()
	s.tweets = append(s.tweets, placeholder)
	s.mu.Unlock()

	confirmed, err := s.api.CreateTweet(ctx, req)
	s.mu.Lock()
	i := s.indexOfLocked(placeholder.ID.Value)
	if err != nil {
		if i >= 0 {
			s.tweets = append(s.tweets[:i], s.tweets[i+1:]...)
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Tweet{}, err
	}
	if i >= 0 {
		s.tweets[i] = confirmed
	} else {
		s.tweets = append(s.tweets, confirmed)
	}
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// UpdateTweet applies the edit optimistically, keeping a per-entity
// snapshot it restores on failure.
func (s *TweetStore) UpdateTweet(ctx context.Context, tweetID string, req apiclient.UpdateTweetRequest) (model.Tweet, error) {
	s.mu.Lock()
	i := s.indexOfLocked(tweetID)
	if i < 0 {
		s.mu.Unlock()
		return s.api.UpdateTweet(ctx, tweetID, req)
	}
	prev := s.tweets[i]
	if req.Content != nil {
		s.tweets[i].Content = *req.Content
	}
	if req.Position != nil {
		s.tweets[i].Position = *req.Position
	}
	s.mu.Unlock()

	confirmed, err := s.api.UpdateTweet(ctx, tweetID, req)
	s.mu.Lock()
	i = s.indexOfLocked(tweetID)
	if err != nil {
		if i >= 0 {
			s.tweets[i] = prev
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Tweet{}, err
	}
	if i >= 0 {
		s.tweets[i] = confirmed
	}
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// DeleteTweet removes optimistically and restores on failure.
func (s *TweetStore) DeleteTweet(ctx context.Context, tweetID string) error {
	s.mu.Lock()
	i := s.indexOfLocked(tweetID)
	var removed *model.Tweet
	if i >= 0 {
		t := s.tweets[i]
		removed = &t
		s.tweets = append(s.tweets[:i], s.tweets[i+1:]...)
	}
	s.mu.Unlock()

	if err := s.api.DeleteTweet(ctx, tweetID); err != nil {
		if removed != nil {
			s.mu.Lock()
			s.tweets = append(s.tweets, *removed)
			s.mu.Unlock()
		}
		metrics.Rollbacks.Inc()
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return nil
}

// ToggleLike flips the caller's membership in the like set and both
// counters in lockstep, then replaces them atomically from the server's
// response. Toggles on the same tweet are serialized so overlapping
// rapid clicks cannot compute stale deltas.
func (s *TweetStore) ToggleLike(ctx context.Context, tweetID string) (model.Tweet, error) {
	s.entityLock(tweetID).Lock()
	defer s.entityLock(tweetID).Unlock()

	self := s.sess.AnonymousID()

	s.mu.Lock()
	i := s.indexOfLocked(tweetID)
	if i < 0 {
		s.mu.Unlock()
		return model.Tweet{}, &apiclient.APIError{Message: "tweet not found in local collection", Status: 404}
	}
	wasLiked := s.tweets[i].LikedByUser(self)
	if wasLiked {
		s.tweets[i].LikedBy = lo.Without(s.tweets[i].LikedBy, self)
	} else {
		s.tweets[i].LikedBy = append(s.tweets[i].LikedBy, self)
	}
	s.tweets[i].LikeCount = len(s.tweets[i].LikedBy)
	s.mu.Unlock()

	var confirmed model.Tweet
	var err error
	if wasLiked {
		confirmed, err = s.api.UnlikeTweet(ctx, tweetID)
	} else {
		confirmed, err = s.api.LikeTweet(ctx, tweetID)
	}

	s.mu.Lock()
	i = s.indexOfLocked(tweetID)
	if err != nil {
		// Flip back using the pre-toggle state captured above.
		if i >= 0 {
			if wasLiked {
				s.tweets[i].LikedBy = append(s.tweets[i].LikedBy, self)
			} else {
				s.tweets[i].LikedBy = lo.Without(s.tweets[i].LikedBy, self)
			}
			s.tweets[i].LikeCount = len(s.tweets[i].LikedBy)
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Tweet{}, err
	}
	if i >= 0 {
		s.tweets[i] = confirmed
	}
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// SetStatus assigns a lifecycle status optimistically.
func (s *TweetStore) SetStatus(ctx context.Context, tweetID string, status model.TweetStatus) (model.Tweet, error) {
	return s.mutate(ctx, tweetID,
		func(t *model.Tweet) { t.Status = status },
		func(ctx context.Context) (model.Tweet, error) { return s.api.SetTweetStatus(ctx, tweetID, status) })
}

// SetPinned pins or unpins a tweet optimistically.
func (s *TweetStore) SetPinned(ctx context.Context, tweetID string, pinned bool) (model.Tweet, error) {
	call := s.api.UnpinTweet
	if pinned {
		call = s.api.PinTweet
	}
	return s.mutate(ctx, tweetID,
		func(t *model.Tweet) { t.IsPinned = pinned },
		func(ctx context.Context) (model.Tweet, error) { return call(ctx, tweetID) })
}

// Move updates a tweet's board position optimistically.
func (s *TweetStore) Move(ctx context.Context, tweetID string, pos model.Position) (model.Tweet, error) {
	return s.mutate(ctx, tweetID,
		func(t *model.Tweet) { t.Position = pos },
		func(ctx context.Context) (model.Tweet, error) { return s.api.MoveTweet(ctx, tweetID, pos) })
}

// mutate is the shared snapshot/apply/reconcile/revert cycle for
// entity-scoped edits.
func (s *TweetStore) mutate(ctx context.Context, tweetID string, apply func(*model.Tweet), call func(context.Context) (model.Tweet, error)) (model.Tweet, error) {
	s.mu.Lock()
	i := s.indexOfLocked(tweetID)
	var prev model.Tweet
	if i >= 0 {
		prev = s.tweets[i]
		apply(&s.tweets[i])
	}
	s.mu.Unlock()

	confirmed, err := call(ctx)
	s.mu.Lock()
	i = s.indexOfLocked(tweetID)
	if err != nil {
		if i >= 0 {
			s.tweets[i] = prev
		}
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Tweet{}, err
	}
	if i >= 0 {
		s.tweets[i] = confirmed
	}
	s.snapshotLocked()
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// LastValidTweets returns the coarse last-known-good snapshot taken
// after each successful completion.
func (s *TweetStore) LastValidTweets() []model.Tweet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Tweet, len(s.lastValid))
	copy(out, s.lastValid)
	return out
}

func (s *TweetStore) snapshotLocked() {
	s.lastValid = make([]model.Tweet, len(s.tweets))
	copy(s.lastValid, s.tweets)
}

func (s *TweetStore) indexOfLocked(id string) int {
	for i := range s.tweets {
		if s.tweets[i].ID.Value == id || (s.tweets[i].TweetID != "" && s.tweets[i].TweetID == id) {
			return i
		}
	}
	return -1
}

func (s *TweetStore) entityLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.likeMu[id]
	if !ok {
		m = &sync.Mutex{}
		s.likeMu[id] = m
	}
	return m
}

// fail records the failure for the UI and routes auth errors to the
// forced-logout path.
func (s *TweetStore) fail(err error) {
	if apiclient.IsCanceled(err) {
		return
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	if s.sess.HandleAuthError(err) {
		return
	}
	log.Debug().Err(err).Msg("tweet operation failed")
}
