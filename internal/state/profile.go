package state

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hubclient/internal/apiclient"
	"hubclient/internal/localcache"
	"hubclient/internal/metrics"
	"hubclient/internal/model"
	"hubclient/internal/session"
)

// ProfileAPI is the slice of the API client the profile store depends on.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, req apiclient.UpdateProfileRequest) (model.Profile, error)
	GetPoints(ctx context.Context) (model.Points, error)
	PointsHistory(ctx context.Context, limit int) ([]model.PointsEntry, error)
	TransferPoints(ctx context.Context, req apiclient.TransferPointsRequest) (model.Points, error)
}

const profileCacheTTL = time.Minute

// ProfileStore owns the normalized profile and points balance, with a
// small read-through cache in front of the profile lookup.
type ProfileStore struct {
	mu      sync.Mutex
	api     ProfileAPI
	sess    *session.Session
	local   *localcache.Service
	profile *model.Profile
	points  *model.Points
	lastErr string
}

// NewProfileStore builds a profile store. local may be nil to disable
// the read-through cache.
func NewProfileStore(api ProfileAPI, sess *session.Session, local *localcache.Service) *ProfileStore {
	return &ProfileStore{api: api, sess: sess, local: local}
}

// Profile returns the last fetched profile, or nil.
func (s *ProfileStore) Profile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// LastError returns the most recent failure message.
func (s *ProfileStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *ProfileStore) cacheKey() string {
	return "profile#" + s.sess.AnonymousID()
}

// FetchProfile loads the profile, serving from the local cache when a
// fresh copy exists.
func (s *ProfileStore) FetchProfile(ctx context.Context) (model.Profile, error) {
	if s.local != nil {
		if v, err := s.local.Get(ctx, s.cacheKey(), new(model.Profile)); err == nil {
			if p, ok := v.(*model.Profile); ok {
				s.mu.Lock()
				s.profile = p
				s.mu.Unlock()
				return *p, nil
			}
		}
	}
	p, err := s.api.GetProfile(ctx)
	if err != nil {
		s.fail(err)
		return model.Profile{}, err
	}
	s.mu.Lock()
	s.profile = &p
	s.lastErr = ""
	s.mu.Unlock()
	if s.local != nil {
		if err := s.local.Set(ctx, s.cacheKey(), &p, profileCacheTTL); err != nil {
			log.Debug().Err(err).Msg("profile cache write failed")
		}
	}
	return p, nil
}

// UpdateProfile applies the edit optimistically and reverts on failure.
func (s *ProfileStore) UpdateProfile(ctx context.Context, req apiclient.UpdateProfileRequest) (model.Profile, error) {
	s.mu.Lock()
	var prev *model.Profile
	if s.profile != nil {
		cp := *s.profile
		prev = &cp
		if req.FullName != nil {
			s.profile.FullName = *req.FullName
		}
		if req.Bio != nil {
			s.profile.Bio = *req.Bio
		}
		if req.Locale != nil {
			s.profile.Locale = *req.Locale
		}
		if req.IsPublic != nil {
			s.profile.IsPublic = *req.IsPublic
		}
		if req.ShowActivity != nil {
			s.profile.ShowActivity = *req.ShowActivity
		}
		if req.Notifications != nil {
			s.profile.Notifications = req.Notifications
		}
	}
	s.mu.Unlock()

	confirmed, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.profile = prev
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Profile{}, err
	}
	s.mu.Lock()
	s.profile = &confirmed
	s.lastErr = ""
	s.mu.Unlock()
	if s.local != nil {
		if err := s.local.Set(ctx, s.cacheKey(), &confirmed, profileCacheTTL); err != nil {
			log.Debug().Err(err).Msg("profile cache write failed")
		}
	}
	return confirmed, nil
}

// FetchPoints loads the balance.
func (s *ProfileStore) FetchPoints(ctx context.Context) (model.Points, error) {
	p, err := s.api.GetPoints(ctx)
	if err != nil {
		s.fail(err)
		return model.Points{}, err
	}
	s.mu.Lock()
	s.points = &p
	s.lastErr = ""
	s.mu.Unlock()
	return p, nil
}

// TransferPoints debits the balance optimistically and reverts on
// failure.
func (s *ProfileStore) TransferPoints(ctx context.Context, req apiclient.TransferPointsRequest) (model.Points, error) {
	s.mu.Lock()
	var prev *model.Points
	if s.points != nil {
		cp := *s.points
		prev = &cp
		s.points.Balance -= req.Amount
	}
	s.mu.Unlock()

	confirmed, err := s.api.TransferPoints(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.points = prev
		s.mu.Unlock()
		metrics.Rollbacks.Inc()
		s.fail(err)
		return model.Points{}, err
	}
	s.mu.Lock()
	s.points = &confirmed
	s.lastErr = ""
	s.mu.Unlock()
	return confirmed, nil
}

// History loads the points ledger.
func (s *ProfileStore) History(ctx context.Context, limit int) ([]model.PointsEntry, error) {
	out, err := s.api.PointsHistory(ctx, limit)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return out, nil
}

func (s *ProfileStore) fail(err error) {
	if apiclient.IsCanceled(err) {
		return
	}
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	if s.sess.HandleAuthError(err) {
		return
	}
	log.Debug().Err(err).Msg("profile operation failed")
}
